package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/golgbm/lightgbm"
	"github.com/YuminosukeSato/golgbm/metrics"
	"github.com/YuminosukeSato/golgbm/pkg/errors"
)

func (c *cli) newEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate a saved model on labelled data",
		Long: `Evaluate a saved model on a data file with the label in the first column.

Metrics: auc, logloss, accuracy (classification), mse, rmse, mae, r2 (regression).
Multiclass models support logloss and accuracy.`,
		Example: `  lgbm eval --model model.txt --data test.tsv --metric auc --metric logloss`,
		Args:    cobra.NoArgs,
		RunE:    c.evalHandler,
	}
	cmd.Flags().String("model", "model.txt", "Model file")
	cmd.Flags().String("data", "", "Labelled data file, label first")
	cmd.Flags().StringSlice("metric", []string{"rmse"}, "Metric to report (repeatable or comma separated)")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

// evaluate computes metric from labels and predictions, which hold one
// slice per row.
func evaluate(metric string, labels []float64, preds [][]float64) (float64, error) {
	yTrue := mat.NewVecDense(len(labels), labels)
	width := len(preds[0])

	if width > 1 {
		proba := mat.NewDense(len(preds), width, nil)
		for i, row := range preds {
			proba.SetRow(i, row)
		}
		switch metric {
		case "logloss":
			return metrics.MultiLogLoss(yTrue, proba)
		case "accuracy":
			return metrics.Accuracy(yTrue, metrics.ArgmaxRows(proba))
		}
		return 0, errors.NewValidationError("metric", "not available for multiclass models", metric)
	}

	flat := make([]float64, len(preds))
	for i, row := range preds {
		flat[i] = row[0]
	}
	yPred := mat.NewVecDense(len(flat), flat)

	switch metric {
	case "auc":
		return metrics.AUC(yTrue, yPred)
	case "logloss":
		return metrics.BinaryLogLoss(yTrue, yPred)
	case "accuracy":
		classes := mat.NewVecDense(len(flat), nil)
		for i, p := range flat {
			if p > 0.5 {
				classes.SetVec(i, 1)
			}
		}
		return metrics.Accuracy(yTrue, classes)
	case "mse":
		return metrics.MSE(yTrue, yPred)
	case "rmse":
		return metrics.RMSE(yTrue, yPred)
	case "mae":
		return metrics.MAE(yTrue, yPred)
	case "r2":
		return metrics.R2Score(yTrue, yPred)
	}
	return 0, errors.NewValidationError("metric", "expected auc, logloss, accuracy, mse, rmse, mae or r2", metric)
}

func (c *cli) evalHandler(cmd *cobra.Command, args []string) error {
	dataPath, _ := cmd.Flags().GetString("data")
	rows, labels, err := readRows(dataPath, true)
	if err != nil {
		return err
	}

	modelPath, _ := cmd.Flags().GetString("model")
	booster, err := c.loadBooster(modelPath)
	if err != nil {
		return err
	}
	defer booster.Close()

	preds, err := booster.PredictRows(rows, lightgbm.PredictNormal)
	if err != nil {
		return err
	}

	names, _ := cmd.Flags().GetStringSlice("metric")
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		value, err := evaluate(name, labels, preds)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, formatFloat(value))
	}
	return nil
}
