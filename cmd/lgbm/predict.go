package main

import (
	"bufio"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/golgbm/internal/tabular"
	"github.com/YuminosukeSato/golgbm/lightgbm"
	"github.com/YuminosukeSato/golgbm/pkg/errors"
)

func (c *cli) newPredictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score rows with a saved model",
		Long: `Score rows with a saved model. Each output line holds the predictions for
one input row, tab separated.`,
		Example: `  lgbm predict --model model.txt --data rows.tsv
  lgbm predict --model model.txt --data rows.tsv --mode contrib`,
		Args: cobra.NoArgs,
		RunE: c.predictHandler,
	}
	cmd.Flags().String("model", "model.txt", "Model file")
	cmd.Flags().String("data", "", "Rows to score, features only unless --has-label")
	cmd.Flags().Bool("has-label", false, "Ignore the first column of --data")
	cmd.Flags().Bool("raw", false, "Shorthand for --mode raw")
	cmd.Flags().String("mode", "normal", "Prediction type: normal, raw, leaf or contrib")
	cmd.Flags().String("out", "", "Write predictions to a file instead of stdout")
	cmd.Flags().Int("chunk-size", tabular.DefaultChunkSize, "Rows scored per native call")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func predictMode(cmd *cobra.Command) (lightgbm.PredictType, error) {
	if raw, _ := cmd.Flags().GetBool("raw"); raw {
		return lightgbm.PredictRawScore, nil
	}
	name, _ := cmd.Flags().GetString("mode")
	return lightgbm.ParsePredictType(name)
}

func writePredictions(w io.Writer, preds [][]float64) error {
	bw := bufio.NewWriter(w)
	for _, row := range preds {
		for j, v := range row {
			if j > 0 {
				bw.WriteByte('\t')
			}
			bw.WriteString(formatFloat(v))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// closeOutput closes f and reports its error through err unless an earlier
// error is already set. A failed close can lose buffered writes.
func closeOutput(f io.Closer, name string, err *error) {
	if cerr := f.Close(); cerr != nil && *err == nil {
		*err = errors.Wrapf(cerr, "close %s", name)
	}
}

func (c *cli) predictHandler(cmd *cobra.Command, args []string) (err error) {
	mode, err := predictMode(cmd)
	if err != nil {
		return err
	}
	dataPath, _ := cmd.Flags().GetString("data")
	data, err := os.Open(dataPath)
	if err != nil {
		return errors.Wrapf(err, "open %s", dataPath)
	}
	defer data.Close()

	modelPath, _ := cmd.Flags().GetString("model")
	booster, err := c.loadBooster(modelPath)
	if err != nil {
		return err
	}
	defer booster.Close()

	w := cmd.OutOrStdout()
	if out, _ := cmd.Flags().GetString("out"); out != "" {
		f, cerr := os.Create(out)
		if cerr != nil {
			return errors.Wrapf(cerr, "create %s", out)
		}
		defer closeOutput(f, out, &err)
		w = f
	}

	hasLabel, _ := cmd.Flags().GetBool("has-label")
	chunkSize, _ := cmd.Flags().GetInt("chunk-size")
	processor := tabular.NewChunkedProcessor(chunkSize, hasLabel)
	_, err = processor.Process(data, dataPath, func(rows [][]float64, _ []float64) error {
		preds, err := booster.PredictRows(rows, mode)
		if err != nil {
			return err
		}
		return writePredictions(w, preds)
	})
	return err
}
