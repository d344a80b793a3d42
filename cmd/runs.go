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
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/govlm/store"
)

// RunsCmd represents the runs command
var RunsCmd = &cobra.Command{
	Use:   "runs <case>",
	Short: "List the recorded runs of a case",
	Long: `
Lists the runs of a case from the results database, or the span loads of one
run when its id is given,

govlm runs --db results.db wing
govlm runs --db results.db --run <id>`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		dbFile := viper.GetString("db")
		if dbFile == "" {
			return fmt.Errorf("must supply a results database (--db)")
		}
		runID, _ := cmd.Flags().GetString("run")
		if runID == "" && len(args) != 1 {
			return fmt.Errorf("must name a case or a run")
		}
		db, err := store.OpenResults(dbFile, false)
		if err != nil {
			return
		}
		defer db.Close()
		if runID != "" {
			var rec *store.RunRecord
			if rec, err = db.Run(runID); err != nil {
				return
			}
			printRunRecord(rec)
			return
		}
		var recs []store.RunRecord
		if recs, err = db.Runs(args[0]); err != nil {
			return
		}
		fmt.Printf("%-36s %8s %8s %8s %10s %10s %10s\n", "Run", "Mach", "Alpha", "Beta", "CL", "CDi", "CMy")
		for _, rec := range recs {
			fmt.Printf("%-36s %8.4f %8.4f %8.4f %10.6f %10.6f %10.6f\n",
				rec.RunID, rec.Mach, rec.Alpha, rec.Beta, rec.CL, rec.CDi, rec.CMy)
		}
		return
	},
}

func init() {
	rootCmd.AddCommand(RunsCmd)
	RunsCmd.Flags().String("run", "", "show the span loads of this run")
}

func printRunRecord(rec *store.RunRecord) {
	fmt.Printf("Run %s of %s at %s, %d loops\n", rec.RunID, rec.CaseName, rec.CreatedAt.Format("2006-01-02 15:04:05"), rec.NLoops)
	fmt.Printf("CL %10.6f CDi %10.6f CS %10.6f CMx %10.6f CMy %10.6f CMz %10.6f\n",
		rec.CL, rec.CDi, rec.CS, rec.CMx, rec.CMy, rec.CMz)
	fmt.Printf("%6s %8s %12s %12s %12s %12s\n", "Sheet", "Station", "S", "Chord", "Cl", "Cd")
	for _, sl := range rec.SpanLoads {
		fmt.Printf("%6d %8d %12.6f %12.6f %12.6f %12.6f\n", sl.Sheet, sl.Station, sl.S, sl.Chord, sl.Cl, sl.Cd)
	}
}
