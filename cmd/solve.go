/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/govlm/InputParameters"
	"github.com/notargets/govlm/VLM/solver"
	"github.com/notargets/govlm/VLM/tags"
	"github.com/notargets/govlm/logger"
	"github.com/notargets/govlm/store"
)

type SolveOptions struct {
	CaseFile string
	Restart  string // Snapshot to take node positions from
	Snapshot string
	TagList  string
	DB       string
	Profile  string
	LogLevel string
	LogDir   string
	Verbose  bool
}

const exampleCase = `
########################################
Title: "Rectangular wing"
Mach: 0.2
Alpha: 5
Sref: 8
Cref: 1
Bref: 8
Xcg: [0.25, 0, 0]
Surfaces:
  - Name: wing
    Type: wing       # or body
    RootChord: 1
    Span: 4          # semi-span when mirrored
    NChord: 4
    NSpan: 8
    Mirror: true
########################################
`

// SolveCmd represents the solve command
var SolveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve one flight condition of a case",
	Long: `
Builds the lattice of every surface in the case file, solves for the loop
circulations and reports coefficients and span loads,

govlm solve -I case.yaml --snapshot run.snap --db results.db`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		so := &SolveOptions{}
		so.CaseFile, _ = cmd.Flags().GetString("inputConditionsFile")
		so.Restart, _ = cmd.Flags().GetString("restart")
		so.Snapshot, _ = cmd.Flags().GetString("snapshot")
		so.TagList, _ = cmd.Flags().GetString("tagList")
		so.Profile, _ = cmd.Flags().GetString("profile")
		so.Verbose, _ = cmd.Flags().GetBool("verbose")
		so.DB = viper.GetString("db")
		so.LogLevel = viper.GetString("logLevel")
		so.LogDir = viper.GetString("logDir")
		if len(so.CaseFile) == 0 {
			fmt.Printf("Example File:%s\n", exampleCase)
			return fmt.Errorf("must supply a case file (-I, --inputConditionsFile) in YAML format")
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		_, err = RunSolve(ctx, so)
		return
	},
}

func init() {
	rootCmd.AddCommand(SolveCmd)
	SolveCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML case file with the flight condition, references and surfaces")
	SolveCmd.Flags().StringP("restart", "r", "", "snapshot to restore node positions from before solving")
	SolveCmd.Flags().StringP("snapshot", "s", "", "write the solution to this snapshot file")
	SolveCmd.Flags().StringP("tagList", "t", "", ".taglist file of regions to attribute loads to")
	SolveCmd.Flags().String("profile", "", "write a cpu or mem profile to the log directory")
	SolveCmd.Flags().BoolP("verbose", "v", false, "print the setup and timing summaries")
}

// CaseName is the case file name without directory or extension
func CaseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func RunSolve(ctx context.Context, so *SolveOptions) (r *solver.Result, err error) {
	switch strings.ToLower(so.Profile) {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(so.LogDir), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath(so.LogDir), profile.NoShutdownHook).Stop()
	default:
		return nil, fmt.Errorf("unknown profile %q, must be cpu or mem", so.Profile)
	}
	cp, err := InputParameters.ReadCase(so.CaseFile)
	if err != nil {
		return
	}
	if so.Verbose {
		cp.Print()
	}
	log, err := logger.New(so.LogLevel, so.LogDir)
	if err != nil {
		return
	}
	defer log.Close()
	log = log.With("case", CaseName(so.CaseFile))

	m, err := cp.Mesh()
	if err != nil {
		return
	}
	if so.Restart != "" {
		var sn *store.Snapshot
		if sn, err = store.ReadSnapshot(so.Restart); err != nil {
			return
		}
		if err = sn.Restore(m); err != nil {
			return
		}
		log.Infof("restarting from run %s", sn.RunID)
	}
	s, err := solver.NewSolver(m, cp.SolverParameters(),
		solver.WithLogger(log), solver.WithVerbose(so.Verbose))
	if err != nil {
		return
	}
	if r, err = s.Solve(ctx); err != nil {
		return
	}
	printCoefficients(r)

	if so.TagList != "" {
		var (
			tl    *tags.TagList
			loads []tags.RegionLoads
		)
		if tl, err = tags.ReadTagList(so.TagList); err != nil {
			return
		}
		if loads, err = tl.Attribute(m); err != nil {
			return
		}
		printRegionLoads(loads, cp.SolverParameters())
	}
	if so.Snapshot != "" {
		if err = store.WriteSnapshot(so.Snapshot, store.NewSnapshot(r, m)); err != nil {
			return
		}
		log.Infof("wrote snapshot %s", so.Snapshot)
	}
	if so.DB != "" {
		var db *store.Results
		if db, err = store.OpenResults(so.DB, so.LogLevel == "debug"); err != nil {
			return
		}
		defer db.Close()
		if _, err = db.SaveRun(CaseName(so.CaseFile), r); err != nil {
			return
		}
		log.Infof("recorded run %s in %s", r.RunID, so.DB)
	}
	log.Infof("case %s finished in %v", so.CaseFile, log.Elapsed())
	return
}

func printCoefficients(r *solver.Result) {
	fmt.Printf("Run %s\n", r.RunID)
	fmt.Printf("Mach %8.4f Alpha %8.4f Beta %8.4f\n", r.Mach, r.Alpha, r.Beta)
	fmt.Printf("%10s %12s %12s %12s\n", "", "Lift", "Drag", "Side")
	fmt.Printf("%10s %12.6f %12.6f %12.6f\n", "", r.CL, r.CDi, r.CS)
	fmt.Printf("%10s %12s %12s %12s\n", "", "CFx", "CFy", "CFz")
	fmt.Printf("%10s %12.6f %12.6f %12.6f\n", "", r.CFx, r.CFy, r.CFz)
	fmt.Printf("%10s %12s %12s %12s\n", "", "CMx", "CMy", "CMz")
	fmt.Printf("%10s %12.6f %12.6f %12.6f\n", "", r.CMx, r.CMy, r.CMz)
	for sheet := 1; sheet < len(r.SpanLoads); sheet++ {
		fmt.Printf("Sheet %d span loads\n", sheet)
		fmt.Printf("%8s %12s %12s %12s %12s\n", "Station", "S", "Chord", "Cl", "Cd")
		for k := 1; k <= r.SpanLoads.NumberOfStations(sheet); k++ {
			sd := &r.SpanLoads[sheet][k]
			fmt.Printf("%8d %12.6f %12.6f %12.6f %12.6f\n", k, sd.S, sd.Chord, sd.Cl, sd.Cd)
		}
	}
}

func printRegionLoads(loads []tags.RegionLoads, p solver.Parameters) {
	var (
		qS         = p.DynamicPressure() * p.Sref
		lift, drag = p.LiftDirection(), p.DragDirection()
	)
	fmt.Printf("%-16s %12s %12s %12s\n", "Region", "Area", "CL", "CD")
	for _, rl := range loads {
		fmt.Printf("%-16s %12.6f %12.6f %12.6f\n", rl.Name, rl.Area,
			r3.Dot(rl.Force, lift)/qS, r3.Dot(rl.Force, drag)/qS)
	}
}
