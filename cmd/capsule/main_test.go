package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/capsule/vm"
	"github.com/chazu/capsule/vm/snapshot"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const demoManifest = `
[project]
name = "demo"

[[class]]
name = "Cell"
fields = ["value", "next"]
transfer = true

[[class]]
name = "Plain"
fields = ["x"]

[[object]]
id = "b"
class = "Cell"
[object.fields]
value = 2
next = "@a"

[[object]]
id = "a"
class = "Cell"
[object.fields]
value = 1

[[object]]
id = "p"
class = "Plain"
[object.fields]
x = 3

[[actor]]
name = "I1"

[[actor]]
name = "I2"
`

// commonlog.Configure starts a buffered writer that outlives the command.
var ignoreLogWriter = goleak.IgnoreTopFunction("github.com/tliron/kutil/util.(*BufferedWriter).run")

func writeDemo(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "capsule.toml"), []byte(content), 0644))
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestLattice(t *testing.T) {
	out, err := run(t, "lattice")
	require.NoError(t, err)
	for _, c := range vm.AllCapabilities() {
		require.Contains(t, out, c.String())
	}
	// 2 + 2 + 2 + 4 + 5 supported pairs.
	require.Equal(t, 15, strings.Count(out, "yes"))
}

func TestCheck(t *testing.T) {
	dir := writeDemo(t, demoManifest)
	out, err := run(t, "check", "-m", dir)
	require.NoError(t, err)
	require.Contains(t, out, "demo: ok (2 classes, 3 objects, 2 actors)")
	require.Regexp(t, `a\s+aliased-isolate`, out)
	require.Regexp(t, `b\s+isolate`, out)
}

func TestCheckReportsGuardError(t *testing.T) {
	dir := writeDemo(t, demoManifest+`
[[object]]
id = "c"
class = "Cell"
[object.fields]
next = "@a"
`)
	_, err := run(t, "check", "-m", filepath.Join(dir, "capsule.toml"))
	require.Error(t, err)
	require.True(t, errors.Is(err, vm.ErrStillAliased))
	require.Contains(t, err.Error(), "capsule.toml [4,2]")
}

func TestCheckMissingManifest(t *testing.T) {
	_, err := run(t, "check", "-m", t.TempDir())
	require.Error(t, err)
}

func TestTransfer(t *testing.T) {
	dir := writeDemo(t, demoManifest)
	cborPath := filepath.Join(t.TempDir(), "copy.cbor")

	out, err := run(t, "transfer", "-m", dir, "--root", "b", "--to", "local", "--cbor", cborPath)
	require.NoError(t, err)
	require.Contains(t, out, "@0 Cell<isolate> value=2 next=@1")
	require.Contains(t, out, "copy (2 objects, local):")
	require.Contains(t, out, "@0 Cell<local> value=2 next=@1")

	data, err := os.ReadFile(cborPath)
	require.NoError(t, err)
	g, err := snapshot.Unmarshal(data)
	require.NoError(t, err)
	require.Len(t, g.Nodes, 2)
	require.Equal(t, "local", g.Nodes[1].Capability)
}

func TestTransferNonTransferType(t *testing.T) {
	dir := writeDemo(t, demoManifest)
	out, err := run(t, "transfer", "-m", dir, "--root", "p")
	require.NoError(t, err)
	require.Contains(t, out, "p is not a transfer type")
}

func TestTransferErrors(t *testing.T) {
	dir := writeDemo(t, demoManifest)

	_, err := run(t, "transfer", "-m", dir, "--root", "zz")
	require.ErrorContains(t, err, `no object "zz"`)

	_, err = run(t, "transfer", "-m", dir, "--root", "b", "--to", "shared")
	require.ErrorContains(t, err, "unknown capability")
}

func TestSend(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreLogWriter)

	dir := writeDemo(t, demoManifest)
	out, err := run(t, "send", "-m", dir, "--from", "I1", "--to", "I2", "--root", "b", "--resend")
	require.NoError(t, err)
	require.Contains(t, out, "I2 received #receive from I1:")
	require.Contains(t, out, "@0 Cell<isolate> value=2 next=@1")
	require.Contains(t, out, "I1's reference to b is now aliased-isolate")
	require.Contains(t, out, "resend rejected:")
	require.Contains(t, out, "Attempted to store an Isolate that is still aliased")
}

func TestSendAfterConsume(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreLogWriter)

	dir := writeDemo(t, demoManifest)
	out, err := run(t, "send", "-m", dir, "--from", "I1", "--to", "I2", "--root", "b", "--consume", "--resend")
	require.NoError(t, err)
	require.Contains(t, out, "I1 consumed b: isolate")
	require.NotContains(t, out, "resend rejected")
	require.Equal(t, 2, strings.Count(out, "I2 received #receive from I1:"))
}

func TestSendAliasedRoot(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreLogWriter)

	dir := writeDemo(t, demoManifest)
	_, err := run(t, "send", "-m", dir, "--from", "I1", "--to", "I2", "--root", "a")
	require.ErrorIs(t, err, vm.ErrStillAliased)
}

func TestSendUnknownActor(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreLogWriter)

	dir := writeDemo(t, demoManifest)
	_, err := run(t, "send", "-m", dir, "--from", "I1", "--to", "I9", "--root", "b")
	require.ErrorContains(t, err, `no actor "I9"`)
}
