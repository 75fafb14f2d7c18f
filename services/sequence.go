package services

// Role identifies a participant in the approval pipeline.
type Role string

const (
	RoleApplicant Role = "applicant"
	RoleAdvisor   Role = "advisor"
	RoleViceDean  Role = "vice_dean"
	RoleDean      Role = "dean"
	RolePublisher Role = "publisher"
)

// Pipeline steps. The letter sits at exactly one step; step 0 means the
// applicant must (re)submit.
const (
	StepApplicant = 0
	StepAdvisor   = 1
	StepViceDean  = 2
	StepDean      = 3
	StepPublisher = 4
)

// pipeline is the single place the role order is written down. Validation
// and routing derive everything from it.
var pipeline = [...]Role{
	StepApplicant: RoleApplicant,
	StepAdvisor:   RoleAdvisor,
	StepViceDean:  RoleViceDean,
	StepDean:      RoleDean,
	StepPublisher: RolePublisher,
}

// StepOf returns the pipeline position of a role.
func StepOf(role Role) (int, error) {
	for step, r := range pipeline {
		if r == role {
			return step, nil
		}
	}
	return 0, ErrUnknownRole
}

// RoleOf returns the role responsible for a pipeline position.
func RoleOf(step int) (Role, error) {
	if step < 0 || step >= len(pipeline) {
		return "", ErrUnknownRole
	}
	return pipeline[step], nil
}

// PipelineRoles returns the roles in pipeline order.
func PipelineRoles() []Role {
	roles := make([]Role, len(pipeline))
	copy(roles, pipeline[:])
	return roles
}
