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
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/notargets/govlm/InputParameters"
	"github.com/notargets/govlm/VLM/tags"
)

// TagsCmd represents the tags command
var TagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Write a tag list with one region per component of a case",
	Long: `
Writes <case>.taglist and one <case>.<region>.tag file per component into the
output directory. Edit or extend the regions and pass the list to solve,

govlm tags -I case.yaml -o tags`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var caseFile, outDir string
		caseFile, _ = cmd.Flags().GetString("inputConditionsFile")
		outDir, _ = cmd.Flags().GetString("outDir")
		if len(caseFile) == 0 {
			return fmt.Errorf("must supply a case file (-I, --inputConditionsFile) in YAML format")
		}
		var path string
		if path, err = WriteComponentTags(caseFile, outDir); err != nil {
			return
		}
		fmt.Printf("wrote %s\n", path)
		return
	},
}

func init() {
	rootCmd.AddCommand(TagsCmd)
	TagsCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML case file")
	TagsCmd.Flags().StringP("outDir", "o", ".", "directory for the tag files")
}

func WriteComponentTags(caseFile, outDir string) (path string, err error) {
	cp, err := InputParameters.ReadCase(caseFile)
	if err != nil {
		return
	}
	m, err := cp.Mesh()
	if err != nil {
		return
	}
	name := CaseName(caseFile)
	path = filepath.Join(outDir, name+".taglist")
	err = tags.NewTagListFromComponents(name, m).Write(path)
	return
}
