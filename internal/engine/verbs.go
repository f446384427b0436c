package engine

// Verb is a built-in command recognized after tokenization. Anything that
// is not a built-in is VerbExternal and is launched as a process.
type Verb int

// Built-in verbs.
const (
	VerbExternal Verb = iota
	VerbCD
	VerbJobs
	VerbFG
	VerbBG
	VerbKill
	VerbExport
	VerbUnset
)

var verbNames = map[string]Verb{
	"cd":     VerbCD,
	"jobs":   VerbJobs,
	"fg":     VerbFG,
	"bg":     VerbBG,
	"kill":   VerbKill,
	"export": VerbExport,
	"unset":  VerbUnset,
}

// ParseVerb maps a command name to its verb.
func ParseVerb(name string) Verb {
	if v, ok := verbNames[name]; ok {
		return v
	}

	return VerbExternal
}

func (v Verb) String() string {
	switch v {
	case VerbExternal:
		return "external"
	case VerbCD:
		return "cd"
	case VerbJobs:
		return "jobs"
	case VerbFG:
		return "fg"
	case VerbBG:
		return "bg"
	case VerbKill:
		return "kill"
	case VerbExport:
		return "export"
	case VerbUnset:
		return "unset"
	default:
		return "unknown"
	}
}
