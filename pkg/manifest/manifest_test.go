package manifest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/okvist/invoker/internal/engine"
	"github.com/okvist/invoker/pkg/api"
)

func noop(ctx context.Context, call api.Call) (any, error) { return nil, nil }

func addNamed(t *testing.T, inv api.Invoker, group, name string, opts ...api.AddOption) api.ActionID {
	t.Helper()

	opts = append(opts, api.Named(name), api.InGroups(group))
	id, err := inv.Add(noop, opts...)
	require.NoError(t, err)
	return id
}

func TestExportCapturesGroupsAndOrder(t *testing.T) {
	inv := engine.New()

	addNamed(t, inv, "export", "resize")
	addNamed(t, inv, "export", "upload")
	addNamed(t, inv, "export", "progress", api.AsForeach())
	addNamed(t, inv, "preview", "thumbnail")

	layout := Export(inv)
	require.Len(t, layout.Groups, 2)

	require.Equal(t, "export", layout.Groups[0].Name)
	require.Equal(t, []string{"resize", "upload"}, layout.Groups[0].Actions)
	require.Equal(t, []string{"progress"}, layout.Groups[0].Foreach)

	require.Equal(t, "preview", layout.Groups[1].Name)
	require.Equal(t, []string{"thumbnail"}, layout.Groups[1].Actions)
}

func TestApplyRestoresOrdering(t *testing.T) {
	inv := engine.New()

	a := addNamed(t, inv, "export", "a")
	b := addNamed(t, inv, "export", "b")
	c := addNamed(t, inv, "export", "c")

	layout := Layout{Groups: []GroupLayout{
		{Name: "export", Actions: []string{"c", "a"}},
	}}
	require.NoError(t, Apply(inv, layout))

	require.Equal(t, []api.ActionID{c, a, b}, inv.ListActions("export"))
}

func TestApplySkipsUnknownGroupsAndNames(t *testing.T) {
	inv := engine.New()

	a := addNamed(t, inv, "export", "a")
	b := addNamed(t, inv, "export", "b")

	layout := Layout{Groups: []GroupLayout{
		{Name: "missing", Actions: []string{"a"}},
		{Name: "export", Actions: []string{"ghost", "b"}},
	}}
	require.NoError(t, Apply(inv, layout))

	require.Equal(t, []api.ActionID{b, a}, inv.ListActions("export"))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	layout := Layout{Groups: []GroupLayout{
		{Name: "export", Actions: []string{"resize", "upload"}, Foreach: []string{"progress"}},
		{Name: "preview", Actions: []string{"thumbnail"}},
	}}

	data, err := Encode(layout)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, layout, decoded)
}

func TestExportApplyRoundTrip(t *testing.T) {
	src := engine.New()
	addNamed(t, src, "export", "resize")
	addNamed(t, src, "export", "upload")

	data, err := Encode(Export(src))
	require.NoError(t, err)

	layout, err := Decode(data)
	require.NoError(t, err)

	// A fresh process registers the same actions in a different order and
	// applies the stored layout to restore it.
	dst := engine.New()
	upload := addNamed(t, dst, "export", "upload")
	resize := addNamed(t, dst, "export", "resize")

	require.NoError(t, Apply(dst, layout))
	require.Equal(t, []api.ActionID{resize, upload}, dst.ListActions("export"))
}
