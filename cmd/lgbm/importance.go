package main

import (
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/golgbm/lightgbm"
	"github.com/YuminosukeSato/golgbm/plot"
)

func (c *cli) newImportanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "importance",
		Short:   "Show feature importance of a saved model",
		Example: `  lgbm importance --model model.txt --type gain --plot importance.png`,
		Args:    cobra.NoArgs,
		RunE:    c.importanceHandler,
	}
	cmd.Flags().String("model", "model.txt", "Model file")
	cmd.Flags().String("type", "split", "Importance type: split or gain")
	cmd.Flags().Int("top", 0, "Show only the N most important features")
	cmd.Flags().String("plot", "", "Also render a bar chart to this image file (.png, .svg, .pdf)")
	return cmd
}

func (c *cli) importanceHandler(cmd *cobra.Command, args []string) error {
	typeName, _ := cmd.Flags().GetString("type")
	kind, err := lightgbm.ParseImportanceType(typeName)
	if err != nil {
		return err
	}

	modelPath, _ := cmd.Flags().GetString("model")
	booster, err := c.loadBooster(modelPath)
	if err != nil {
		return err
	}
	defer booster.Close()

	names, err := booster.FeatureNames()
	if err != nil {
		return err
	}
	values, err := booster.FeatureImportance(kind)
	if err != nil {
		return err
	}

	order := make([]int, len(names))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return values[order[a]] > values[order[b]] })
	top, _ := cmd.Flags().GetInt("top")
	if top > 0 && top < len(order) {
		order = order[:top]
	}

	var data [][]string
	for _, i := range order {
		data = append(data, []string{names[i], formatFloat(values[i])})
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"FEATURE", strings.ToUpper(kind.String())})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()

	if path, _ := cmd.Flags().GetString("plot"); path != "" {
		return plot.Importance(names, values, path,
			plot.WithXLabel(kind.String()),
			plot.WithMaxFeatures(top),
		)
	}
	return nil
}
