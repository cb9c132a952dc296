package models

// Student is an enrolled child as stored under its class partition. Students
// are created by the school's enrollment process and are read-only here.
type Student struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ClassName string `json:"class_name"`
	// Profile carries the extended enrollment record: personal, parent,
	// academic, address, medical and document-link sub-records, kept as the
	// store delivers them.
	Profile map[string]interface{} `json:"profile,omitempty"`
	Grades  []Grade                `json:"grades,omitempty"`
}
