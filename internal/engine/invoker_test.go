package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/okvist/invoker/pkg/api"
)

// logTo returns an ActionFunc appending label to log when called.
func logTo(log *[]string, label string) api.ActionFunc {
	return func(ctx context.Context, call api.Call) (any, error) {
		*log = append(*log, label)
		return nil, nil
	}
}

func TestInvokeRunsActionsInRegistrationOrder(t *testing.T) {
	ctx := context.Background()
	inv := New()

	var log []string
	for _, label := range []string{"a", "b", "c"} {
		if _, err := inv.Add(logTo(&log, label)); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	if err := inv.Invoke(ctx, nil); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}

	if fmt.Sprint(log) != "[a b c]" {
		t.Fatalf("unexpected invocation order: %v", log)
	}
}

func TestInvokeEmptyDefaultGroupIsNoOp(t *testing.T) {
	inv := New()

	if err := inv.Invoke(context.Background(), nil); err != nil {
		t.Fatalf("Invoke of empty default group failed: %v", err)
	}
	if groups := inv.ListGroups(); len(groups) != 1 || groups[0] != api.DefaultGroup {
		t.Fatalf("expected only the default group, got %v", groups)
	}
}

func TestInvokeUnknownGroupFails(t *testing.T) {
	inv := New()

	err := inv.Invoke(context.Background(), []string{"missing"})
	if !errors.Is(err, api.ErrGroupNotFound) {
		t.Fatalf("expected ErrGroupNotFound, got %v", err)
	}
}

func TestInvokeAllRunsEveryGroup(t *testing.T) {
	ctx := context.Background()
	inv := New()

	var log []string
	if _, err := inv.Add(logTo(&log, "first"), api.InGroups("one")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := inv.Add(logTo(&log, "second"), api.InGroups("two")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := inv.Invoke(ctx, []string{api.AllGroups}); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}

	if fmt.Sprint(log) != "[first second]" {
		t.Fatalf("unexpected log: %v", log)
	}
}

func TestActionErrorAbortsRemainingActions(t *testing.T) {
	ctx := context.Background()
	inv := New()

	boom := errors.New("boom")
	var log []string

	if _, err := inv.Add(logTo(&log, "a")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := inv.Add(func(ctx context.Context, call api.Call) (any, error) {
		return nil, boom
	}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := inv.Add(logTo(&log, "c")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := inv.Invoke(ctx, nil); !errors.Is(err, boom) {
		t.Fatalf("expected the action's error, got %v", err)
	}
	if fmt.Sprint(log) != "[a]" {
		t.Fatalf("expected later actions to be skipped, got %v", log)
	}
}

func TestSharedIDAcrossGroups(t *testing.T) {
	ctx := context.Background()
	inv := New()

	var calls int
	id, err := inv.Add(func(ctx context.Context, call api.Call) (any, error) {
		calls++
		return nil, nil
	}, api.InGroups("export", "preview"))
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	act, ok := inv.GetAction(id)
	if !ok {
		t.Fatalf("GetAction did not find id %d", id)
	}
	if fmt.Sprint(act.Groups) != "[export preview]" {
		t.Fatalf("unexpected groups: %v", act.Groups)
	}

	if err := inv.Invoke(ctx, []string{"export", "preview"}); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected the shared action to run once per group, got %d", calls)
	}
}

func TestBoundAndAddedArguments(t *testing.T) {
	ctx := context.Background()
	inv := New()

	var got api.Call
	_, err := inv.Add(func(ctx context.Context, call api.Call) (any, error) {
		got = call
		return nil, nil
	},
		api.WithArgs(1, 2),
		api.WithKwargs(map[string]any{"mode": "fast", "depth": 3}),
	)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	err = inv.Invoke(ctx, nil,
		api.WithAddedArgs(3, 4),
		api.WithAddedKwargs(map[string]any{"mode": "slow"}),
	)
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}

	if fmt.Sprint(got.Args) != "[1 2 3 4]" {
		t.Fatalf("unexpected args: %v", got.Args)
	}
	if got.Kwargs["mode"] != "slow" {
		t.Fatalf("added kwargs should win on collision, got %v", got.Kwargs["mode"])
	}
	if got.Kwargs["depth"] != 3 {
		t.Fatalf("bound kwargs should survive, got %v", got.Kwargs["depth"])
	}
}

func TestAddedArgumentsSplicedAtPosition(t *testing.T) {
	ctx := context.Background()
	inv := New()

	var got []any
	_, err := inv.Add(func(ctx context.Context, call api.Call) (any, error) {
		got = call.Args
		return nil, nil
	}, api.WithArgs("a", "b"))
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := inv.Invoke(ctx, nil, api.WithAddedArgs("x"), api.AtArgsPosition(1)); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if fmt.Sprint(got) != "[a x b]" {
		t.Fatalf("unexpected spliced args: %v", got)
	}

	if err := inv.Invoke(ctx, nil, api.WithAddedArgs("y"), api.AtArgsPosition(0)); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if fmt.Sprint(got) != "[y a b]" {
		t.Fatalf("unexpected spliced args: %v", got)
	}
}

func TestAddRejectsUnsupportedValues(t *testing.T) {
	inv := New()

	if _, err := inv.Add("not a function"); !errors.Is(err, api.ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
	if _, err := inv.Add(42); !errors.Is(err, api.ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
}

func TestIfNotExistsSkipsDuplicateRegistration(t *testing.T) {
	inv := New()

	fn := func(ctx context.Context, call api.Call) (any, error) { return nil, nil }

	id, err := inv.Add(fn)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if id == api.NoID {
		t.Fatalf("first Add should return a real ID")
	}

	dup, err := inv.Add(fn, api.IfNotExists())
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if dup != api.NoID {
		t.Fatalf("duplicate Add should return NoID, got %d", dup)
	}

	// A different group is not a duplicate.
	other, err := inv.Add(fn, api.IfNotExists(), api.InGroups("other"))
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if other == api.NoID {
		t.Fatalf("Add into a fresh group should register")
	}
}

func TestAddAtPosition(t *testing.T) {
	ctx := context.Background()
	inv := New()

	var log []string
	if _, err := inv.Add(logTo(&log, "b")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := inv.Add(logTo(&log, "c")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := inv.Add(logTo(&log, "a"), api.AtPosition(0)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := inv.Add(logTo(&log, "x"), api.AtPosition(-1)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := inv.Invoke(ctx, nil); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if fmt.Sprint(log) != "[a b x c]" {
		t.Fatalf("unexpected order: %v", log)
	}
}

func TestActionIDsAreUniqueAcrossInvokers(t *testing.T) {
	a := New()
	b := New()

	fn := func(ctx context.Context, call api.Call) (any, error) { return nil, nil }

	seen := make(map[api.ActionID]bool)
	for i := 0; i < 5; i++ {
		id1, err := a.Add(fn)
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		id2, err := b.Add(fn)
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		for _, id := range []api.ActionID{id1, id2} {
			if seen[id] {
				t.Fatalf("id %d issued twice", id)
			}
			seen[id] = true
		}
	}
}

func TestActionRemovesSiblingMidInvocation(t *testing.T) {
	ctx := context.Background()
	inv := New()

	var log []string
	var bID api.ActionID

	if _, err := inv.Add(func(ctx context.Context, call api.Call) (any, error) {
		log = append(log, "a")
		return nil, inv.Remove(bID, nil)
	}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	bID, _ = inv.Add(logTo(&log, "b"))
	if _, err := inv.Add(logTo(&log, "c")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := inv.Invoke(ctx, nil); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if fmt.Sprint(log) != "[a c]" {
		t.Fatalf("removed sibling should be skipped, got %v", log)
	}
}

func TestActionRemovesItselfMidInvocation(t *testing.T) {
	ctx := context.Background()
	inv := New()

	var calls int
	var id api.ActionID
	id, _ = inv.Add(func(ctx context.Context, call api.Call) (any, error) {
		calls++
		return nil, inv.Remove(id, nil)
	})

	for i := 0; i < 3; i++ {
		if err := inv.Invoke(ctx, nil); err != nil {
			t.Fatalf("Invoke failed: %v", err)
		}
	}
	if calls != 1 {
		t.Fatalf("self-removing action should run once, ran %d times", calls)
	}
}

func TestNestedInvokerRunsMatchingGroup(t *testing.T) {
	ctx := context.Background()
	parent := New()
	child := New()

	var log []string
	if _, err := child.Add(logTo(&log, "child"), api.InGroups("export")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := parent.Add(logTo(&log, "parent"), api.InGroups("export")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := parent.Add(child, api.InGroups("export")); err != nil {
		t.Fatalf("Add nested invoker failed: %v", err)
	}

	if err := parent.Invoke(ctx, []string{"export"}); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if fmt.Sprint(log) != "[parent child]" {
		t.Fatalf("unexpected log: %v", log)
	}
}

func TestNestedInvokerWithoutMatchingGroupIsSkipped(t *testing.T) {
	ctx := context.Background()
	parent := New()
	child := New()

	var log []string
	if _, err := parent.Add(logTo(&log, "parent")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := parent.Add(child); err != nil {
		t.Fatalf("Add nested invoker failed: %v", err)
	}

	if err := parent.Invoke(ctx, nil); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if fmt.Sprint(log) != "[parent]" {
		t.Fatalf("unexpected log: %v", log)
	}
}

func TestNestedInvokerReceivesAddedArguments(t *testing.T) {
	ctx := context.Background()
	parent := New()
	child := New()

	var got []any
	if _, err := child.Add(func(ctx context.Context, call api.Call) (any, error) {
		got = call.Args
		return nil, nil
	}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := parent.Add(child); err != nil {
		t.Fatalf("Add nested invoker failed: %v", err)
	}

	if err := parent.Invoke(ctx, nil, api.WithAddedArgs("extra")); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if fmt.Sprint(got) != "[extra]" {
		t.Fatalf("unexpected args in nested action: %v", got)
	}
}
