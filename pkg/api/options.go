package api

// AddConfig collects the optional parameters of Add and AddToGroups.
// It is populated by AddOption values; engine implementations read it via
// NewAddConfig.
type AddConfig struct {
	Groups         []string
	Args           []any
	Kwargs         map[string]any
	Foreach        bool
	IgnoreIfExists bool
	Position       *int
	RunGenerator   bool
	Name           string
}

// AddOption customizes a single Add or AddToGroups call.
type AddOption func(*AddConfig)

// NewAddConfig applies opts over the defaults: default group, generator
// support enabled, append position.
func NewAddConfig(opts ...AddOption) AddConfig {
	cfg := AddConfig{RunGenerator: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// InGroups names the groups the action is added to. Missing groups are
// created on demand; the AllGroups sentinel targets every existing group.
func InGroups(groups ...string) AddOption {
	return func(c *AddConfig) { c.Groups = groups }
}

// WithArgs binds positional arguments to the action.
func WithArgs(args ...any) AddOption {
	return func(c *AddConfig) { c.Args = args }
}

// WithKwargs binds keyword arguments to the action. Additional kwargs
// passed to Invoke override these on key collisions.
func WithKwargs(kwargs map[string]any) AddOption {
	return func(c *AddConfig) { c.Kwargs = kwargs }
}

// AsForeach registers the action as a foreach hook bracketing every
// invocation of the group's main actions.
func AsForeach() AddOption {
	return func(c *AddConfig) { c.Foreach = true }
}

// IfNotExists makes Add a no-op returning NoID when the same callable with
// the same foreach-ness is already registered in any of the requested
// groups.
func IfNotExists() AddOption {
	return func(c *AddConfig) { c.IgnoreIfExists = true }
}

// AtPosition sets the insertion index within each group's list. Negative
// values count from the end.
func AtPosition(position int) AddOption {
	return func(c *AddConfig) {
		p := position
		c.Position = &p
	}
}

// NoGenerator disables resumable-computation handling: a Continuation
// produced by the action is returned as a plain result and never stepped.
func NoGenerator() AddOption {
	return func(c *AddConfig) { c.RunGenerator = false }
}

// Named attaches a human-readable label to the action. Names are labels
// for observers and manifests, not identity.
func Named(name string) AddOption {
	return func(c *AddConfig) { c.Name = name }
}

// InvokeConfig collects the optional parameters of Invoke.
type InvokeConfig struct {
	AddedArgs    []any
	AddedKwargs  map[string]any
	ArgsPosition *int
}

// InvokeOption customizes a single Invoke call.
type InvokeOption func(*InvokeConfig)

// NewInvokeConfig applies opts over the defaults (no additional arguments,
// appended at the end).
func NewInvokeConfig(opts ...InvokeOption) InvokeConfig {
	var cfg InvokeConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithAddedArgs appends positional arguments to every action's bound
// arguments for this invocation.
func WithAddedArgs(args ...any) InvokeOption {
	return func(c *InvokeConfig) { c.AddedArgs = args }
}

// WithAddedKwargs merges keyword arguments into every action's bound
// kwargs for this invocation, overriding bound values on collisions.
func WithAddedKwargs(kwargs map[string]any) InvokeOption {
	return func(c *InvokeConfig) { c.AddedKwargs = kwargs }
}

// AtArgsPosition splices the additional positional arguments into the
// bound arguments at the given index instead of appending them. The
// position is forwarded to nested invokers unchanged.
func AtArgsPosition(position int) InvokeOption {
	return func(c *InvokeConfig) {
		p := position
		c.ArgsPosition = &p
	}
}

// RemoveConfig collects the optional parameters of Remove.
type RemoveConfig struct {
	IgnoreUnknownAction bool
}

// RemoveOption customizes a single Remove call.
type RemoveOption func(*RemoveConfig)

// NewRemoveConfig applies opts over the defaults.
func NewRemoveConfig(opts ...RemoveOption) RemoveConfig {
	var cfg RemoveConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// IgnoreUnknownAction turns Remove into a no-op when the ID does not match
// any registered action.
func IgnoreUnknownAction() RemoveOption {
	return func(c *RemoveConfig) { c.IgnoreUnknownAction = true }
}
