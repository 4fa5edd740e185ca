// -- cmd/templates.go --
package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pkarlgren/bryggan/internal/flows"
)

// templatesCmd lists every visual-template asset the active pipeline
// requires. All of them must exist before a run can start.
var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the template images the pipeline requires",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := cfg.Vision().TemplateDir

		fmt.Printf("Place the following PNG images in %s:\n\n", dir)
		for _, ref := range flows.Catalog() {
			threshold := ref.Threshold
			if threshold == 0 {
				threshold = cfg.Vision().DefaultThreshold
			}
			fmt.Printf("- %-45s (key: %s, threshold: %.2f)\n",
				filepath.Join(dir, ref.File), ref.Name, threshold)
		}

		fmt.Println()
		fmt.Println("Tips:")
		fmt.Println("- Crop tightly around the text or button.")
		fmt.Println("- Capture at the same resolution/DPI the run will use.")
		fmt.Println("- Signatures: capture only the window title or header.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(templatesCmd)
}
