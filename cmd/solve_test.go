package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/govlm/InputParameters"
	"github.com/notargets/govlm/VLM/tags"
	"github.com/notargets/govlm/store"
)

func TestRunSolve(t *testing.T) {
	var (
		ctx      = context.Background()
		dir      = t.TempDir()
		caseFile = filepath.Join(dir, "rect.yaml")
	)
	// The example printed for a missing case file is a valid case
	require.NoError(t, os.WriteFile(caseFile, []byte(exampleCase), 0644))
	cp, err := InputParameters.ReadCase(caseFile)
	require.NoError(t, err)
	assert.Equal(t, "Rectangular wing", cp.Title)
	assert.Equal(t, "rect", CaseName(caseFile))

	tagFile, err := WriteComponentTags(caseFile, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "rect.taglist"), tagFile)
	tl, err := tags.ReadTagList(tagFile)
	require.NoError(t, err)
	require.Len(t, tl.Regions, 1)
	assert.Equal(t, "wing", tl.Regions[0].Name)
	assert.Len(t, tl.Regions[0].Tris, 2*4*16)

	so := &SolveOptions{
		CaseFile: caseFile,
		Snapshot: filepath.Join(dir, "rect.snap"),
		TagList:  tagFile,
		DB:       filepath.Join(dir, "results.db"),
		LogLevel: "info",
		LogDir:   filepath.Join(dir, "logs"),
	}
	r, err := RunSolve(ctx, so)
	require.NoError(t, err)
	assert.Greater(t, r.CL, 0.3)
	logText, err := os.ReadFile(filepath.Join(dir, "logs", "govlm.slog"))
	require.NoError(t, err)
	assert.Contains(t, string(logText), "finished in")

	sn, err := store.ReadSnapshot(so.Snapshot)
	require.NoError(t, err)
	assert.Equal(t, r.RunID.String(), sn.RunID)
	assert.Equal(t, r.CL, sn.Coefficients.CL)

	// Restarting from the snapshot reproduces the solution as a new run
	so.Restart, so.Snapshot, so.TagList = so.Snapshot, "", ""
	r2, err := RunSolve(ctx, so)
	require.NoError(t, err)
	assert.NotEqual(t, r.RunID, r2.RunID)
	assert.InDelta(t, r.CL, r2.CL, 1.e-12)
	assert.InDelta(t, r.CDi, r2.CDi, 1.e-12)

	db, err := store.OpenResults(so.DB, false)
	require.NoError(t, err)
	defer db.Close()
	runs, err := db.Runs("rect")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, r.RunID.String(), runs[0].RunID)
	assert.Equal(t, r2.RunID.String(), runs[1].RunID)
}

func TestRunSolveErrors(t *testing.T) {
	var (
		ctx = context.Background()
		dir = t.TempDir()
	)
	_, err := RunSolve(ctx, &SolveOptions{CaseFile: filepath.Join(dir, "missing.yaml"), LogDir: dir})
	assert.ErrorIs(t, err, os.ErrNotExist)

	caseFile := filepath.Join(dir, "rect.yaml")
	require.NoError(t, os.WriteFile(caseFile, []byte(exampleCase), 0644))
	_, err = RunSolve(ctx, &SolveOptions{CaseFile: caseFile, LogDir: dir, Profile: "disk"})
	assert.Error(t, err)
	_, err = RunSolve(ctx, &SolveOptions{CaseFile: caseFile, LogDir: dir, LogLevel: "loud"})
	assert.Error(t, err)
	supersonic := filepath.Join(dir, "fast.yaml")
	require.NoError(t, os.WriteFile(supersonic,
		[]byte(strings.Replace(exampleCase, "Mach: 0.2", "Mach: 1.5", 1)), 0644))
	_, err = RunSolve(ctx, &SolveOptions{CaseFile: supersonic, LogDir: dir})
	assert.ErrorContains(t, err, "subsonic")
	_, err = RunSolve(ctx, &SolveOptions{CaseFile: caseFile, LogDir: dir,
		Restart: filepath.Join(dir, "missing.snap")})
	assert.Error(t, err)
	_, err = RunSolve(ctx, &SolveOptions{CaseFile: caseFile, LogDir: dir,
		TagList: filepath.Join(dir, "missing.taglist")})
	assert.ErrorIs(t, err, os.ErrNotExist)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = RunSolve(cancelled, &SolveOptions{CaseFile: caseFile, LogDir: dir})
	assert.ErrorIs(t, err, context.Canceled)
}
