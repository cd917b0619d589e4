package nexus

// DefaultReactionLimit is the tick ceiling applied to every reaction unless
// the host overrides it. Zero disables the ceiling entirely.
const DefaultReactionLimit = 10000

// NewRuntime assembles an interpreter: a Core frame holding the builtin
// registry and a Global frame (child of Core) where programs run. Hosts
// normally call NewInterpreter, which is an alias.
func NewRuntime() (*Interpreter, error) {
	core := NewEnv(nil)
	ip := &Interpreter{
		Core:          core,
		natives:       map[string]*Native{},
		reactionLimit: DefaultReactionLimit,
	}
	ip.Global = NewEnv(core)

	registerCoreBuiltins(ip)
	registerStringBuiltins(ip)
	registerMathBuiltins(ip)
	registerJSONBuiltins(ip)
	return ip, nil
}
