package cli

import (
	"bytes"
	"context"
	"image/png"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SyncBoard/internal/config"
	"SyncBoard/internal/net"
	"SyncBoard/internal/ot"
	"SyncBoard/internal/persist"
	"SyncBoard/internal/state"
)

func servedBoard(t *testing.T, board string, lines ...state.Line) string {
	t.Helper()
	storage := persist.NewMemory()
	if len(lines) > 0 {
		ops := make([]ot.Op, len(lines))
		for i, l := range lines {
			ops[i] = ot.InsertOp(i, l)
		}
		require.NoError(t, storage.Append(context.Background(), board, 0, ops, state.Document{Lines: lines}))
	}

	hub := net.NewHub(storage, nil)
	srv := httptest.NewServer(hub.Handler())
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return strings.TrimPrefix(srv.URL, "http://")
}

func stroke(id string) state.Line {
	return state.Line{
		ID:            id,
		StrokeColor:   "#ff0000",
		StrokeWidth:   8,
		CompositeMode: state.CompositeDraw,
		Points:        []state.Point{{X: -40, Y: 0}, {X: 40, Y: 0}},
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestExportPNG(t *testing.T) {
	addr := servedBoard(t, "sketch", stroke("a"))
	out := filepath.Join(t.TempDir(), "sketch.png")

	_, err := run(t, "export", "-q", "localboard://"+addr+"/sketch", "--out", out, "--width", "320", "--height", "200")
	require.NoError(t, err)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())
	r, g, b, _ := img.At(160, 100).RGBA()
	assert.Equal(t, []uint32{0xffff, 0, 0}, []uint32{r, g, b})
}

func TestExportPDFByDefault(t *testing.T) {
	addr := servedBoard(t, "default", stroke("a"))
	out := filepath.Join(t.TempDir(), "board.out")

	_, err := run(t, "export", "-q", "localboard://"+addr, "-o", out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestExportUnknownBoard(t *testing.T) {
	addr := servedBoard(t, "default")

	// an unseen board is empty, not an error
	out := filepath.Join(t.TempDir(), "empty.png")
	_, err := run(t, "export", "-q", addr+"/nothing-here", "-o", out)
	require.NoError(t, err)
	_, err = os.Stat(out)
	assert.NoError(t, err)
}

func TestExportNeedsLink(t *testing.T) {
	_, err := run(t, "export", "-q")
	assert.Error(t, err)

	_, err = run(t, "export", "-q", "localboard://")
	assert.Error(t, err)
}

func TestBadConfigFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.toml")
	require.NoError(t, os.WriteFile(path, []byte("[host]\nnot_a_key = 1\n"), 0o644))

	_, err := run(t, "export", "-q", "--config", path, "localboard://127.0.0.1:1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown keys")
}

func TestHostFlagsOverrideConfig(t *testing.T) {
	app := &App{}
	cmd := newHostCmd(app)
	require.NoError(t, cmd.Flags().Parse([]string{"--port", "9999", "--db", "boards.db"}))

	var f hostFlags
	f.port, _ = cmd.Flags().GetInt("port")
	f.db, _ = cmd.Flags().GetString("db")

	cfg := config.Default()
	f.apply(cmd, &cfg)
	assert.Equal(t, 9999, cfg.Host.Port)
	assert.Equal(t, "boards.db", cfg.Host.DBPath)
	assert.Equal(t, config.Default().Host.Board, cfg.Host.Board, "unset flags keep the config value")
}

func TestOpenStorage(t *testing.T) {
	app := &App{Quiet: true}
	ctx := context.Background()

	mem, err := openStorage(ctx, "", app.logger("HOST"))
	require.NoError(t, err)
	assert.IsType(t, &persist.Memory{}, mem)
	require.NoError(t, mem.Close())

	db, err := openStorage(ctx, filepath.Join(t.TempDir(), "data", "boards.db"), app.logger("HOST"))
	require.NoError(t, err)
	assert.IsType(t, &persist.SQLite{}, db)
	require.NoError(t, db.Close())
}

func TestLoggerTags(t *testing.T) {
	var buf bytes.Buffer
	app := &App{Stderr: &buf}
	app.logger("HUB").Print("hello")
	assert.Contains(t, buf.String(), "[HUB] ")
	assert.Contains(t, buf.String(), "hello")

	buf.Reset()
	app.Quiet = true
	app.logger("HUB").Print("hello")
	assert.Empty(t, buf.String())
}
