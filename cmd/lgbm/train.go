package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/golgbm/lightgbm"
)

func (c *cli) newTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a model from a LightGBM data file",
		Long: `Train a model from a data file with the label in the first column.

Parameters come from --params (YAML mapping) and --set key=value pairs;
--set wins on conflicts.`,
		Example: `  lgbm train --data train.tsv --set objective=binary --set num_iterations=50 --out model.txt`,
		Args:    cobra.NoArgs,
		RunE:    c.trainHandler,
	}
	cmd.Flags().String("data", "", "Training data file")
	cmd.Flags().String("params", "", "YAML file with training parameters")
	cmd.Flags().StringArray("set", nil, "Training parameter as key=value (repeatable)")
	cmd.Flags().String("weights", "", "File with one sample weight per line")
	cmd.Flags().StringArray("feature-name", nil, "Feature name (repeat once per feature)")
	cmd.Flags().String("out", "model.txt", "Where to write the model")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

// trainingParams merges the params file and --set pairs.
func trainingParams(cmd *cobra.Command) (lightgbm.Params, error) {
	params := lightgbm.Params{}
	if path, _ := cmd.Flags().GetString("params"); path != "" {
		loaded, err := lightgbm.LoadParams(path)
		if err != nil {
			return nil, err
		}
		params = loaded
	}
	pairs, _ := cmd.Flags().GetStringArray("set")
	overrides, err := lightgbm.ParseParams(pairs)
	if err != nil {
		return nil, err
	}
	for k, v := range overrides {
		params[k] = v
	}
	return params, nil
}

func (c *cli) trainHandler(cmd *cobra.Command, args []string) error {
	params, err := trainingParams(cmd)
	if err != nil {
		return err
	}

	dataPath, _ := cmd.Flags().GetString("data")
	opts := c.options()
	if names, _ := cmd.Flags().GetStringArray("feature-name"); len(names) > 0 {
		opts = append(opts, lightgbm.WithFeatureNames(names))
	}
	ds, err := lightgbm.DatasetFromFile(dataPath, opts...)
	if err != nil {
		return err
	}
	defer ds.Close()

	if path, _ := cmd.Flags().GetString("weights"); path != "" {
		values, err := readColumn(path)
		if err != nil {
			return err
		}
		weights := make([]float32, len(values))
		for i, v := range values {
			weights[i] = float32(v)
		}
		if err := ds.SetWeights(weights); err != nil {
			return err
		}
	}

	booster, err := lightgbm.Train(ds, params)
	if err != nil {
		return err
	}
	defer booster.Close()

	out, _ := cmd.Flags().GetString("out")
	if err := booster.SaveModel(out); err != nil {
		return err
	}

	iterations, err := booster.CurrentIteration()
	if err != nil {
		return err
	}
	rows, err := ds.NumData()
	if err != nil {
		return err
	}
	features, err := ds.NumFeature()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "trained %d iterations on %d rows x %d features, saved to %s\n", iterations, rows, features, out)
	return nil
}
