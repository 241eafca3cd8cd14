package ses

// Hooks for the external test package.
var (
	RunCommand = &runCommand
	LookPath   = &lookPath
)
