package invoker

import (
	"context"
	"database/sql"

	"github.com/okvist/invoker/internal/engine"
	"github.com/okvist/invoker/pkg/api"
	"github.com/okvist/invoker/pkg/journal"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Invoker          = api.Invoker
	ActionID         = api.ActionID
	Action           = api.Action
	Kind             = api.Kind
	Call             = api.Call
	ActionFunc       = api.ActionFunc
	GeneratorFunc    = api.GeneratorFunc
	Continuation     = api.Continuation
	ContinuationFunc = api.ContinuationFunc

	AddOption    = api.AddOption
	InvokeOption = api.InvokeOption
	RemoveOption = api.RemoveOption

	Observer             = api.Observer
	NoopObserver         = api.NoopObserver
	CompositeObserver    = api.CompositeObserver
	LoggingObserver      = api.LoggingObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot
)

// Re-export identity and group sentinels.

const (
	NoID         = api.NoID
	DefaultGroup = api.DefaultGroup
	AllGroups    = api.AllGroups
)

// Re-export action kinds.

const (
	KindFunction        = api.KindFunction
	KindForeachFunction = api.KindForeachFunction
	KindNestedInvoker   = api.KindNestedInvoker
)

// Re-export sentinel errors.

var (
	ErrGroupNotFound    = api.ErrGroupNotFound
	ErrActionNotFound   = api.ErrActionNotFound
	ErrActionNotInGroup = api.ErrActionNotInGroup
	ErrInvalidAction    = api.ErrInvalidAction
)

// Re-export registration and invocation options.

var (
	InGroups    = api.InGroups
	WithArgs    = api.WithArgs
	WithKwargs  = api.WithKwargs
	AsForeach   = api.AsForeach
	IfNotExists = api.IfNotExists
	AtPosition  = api.AtPosition
	NoGenerator = api.NoGenerator
	Named       = api.Named

	WithAddedArgs   = api.WithAddedArgs
	WithAddedKwargs = api.WithAddedKwargs
	AtArgsPosition  = api.AtArgsPosition

	IgnoreUnknownAction = api.IgnoreUnknownAction
)

// Re-export continuation helpers.

var (
	StepSequence = api.StepSequence
	Forever      = api.Forever
	Times        = api.Times
)

// Re-export common observer helpers.

var (
	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver
)

// Invoker constructors
// These wrap the internal/engine package so external callers
// never need to import internal packages.

// New returns an empty Invoker.
func New() Invoker {
	return engine.New()
}

// NewWithObserver returns an empty Invoker that reports invocation events
// to the given Observer.
func NewWithObserver(obs Observer) Invoker {
	return engine.NewWithObserver(obs)
}

// NewWithJournal returns an Invoker whose invocation events are recorded
// in an in-memory journal, along with the journal store for queries.
func NewWithJournal() (Invoker, *journal.InMemoryStore) {
	store := journal.NewInMemoryStore()
	return engine.NewWithObserver(journal.NewRecorder(store)), store
}

// NewWithSQLiteJournal returns an Invoker whose invocation events are
// persisted in the given SQLite database, along with the journal store.
// The caller is responsible for importing a SQLite driver such as
// "modernc.org/sqlite".
func NewWithSQLiteJournal(db *sql.DB) (Invoker, *journal.SQLiteStore, error) {
	store, err := journal.NewSQLiteStore(db)
	if err != nil {
		return nil, nil, err
	}
	return engine.NewWithObserver(journal.NewRecorder(store)), store, nil
}

// Convenience helpers that just forward to the underlying Invoker.

// Invoke invokes the default group.
func Invoke(ctx context.Context, inv Invoker, opts ...InvokeOption) error {
	return inv.Invoke(ctx, nil, opts...)
}

// InvokeAll invokes every existing group.
func InvokeAll(ctx context.Context, inv Invoker, opts ...InvokeOption) error {
	return inv.Invoke(ctx, []string{AllGroups}, opts...)
}
