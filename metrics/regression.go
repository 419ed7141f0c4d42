// Package metrics provides regression scores used to evaluate and select
// fitted models.
package metrics

import (
	"math"

	"github.com/YuminosukeSato/glmbench/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// checkPair は yTrue と yPred が同じ長さの非空ベクトルであることを確認する
func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// MSE は平均二乗誤差を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += d * d
	}
	return sum / float64(n), nil
}

// RMSE は MSE の平方根
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差を計算する
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}
	return sum / float64(n), nil
}

// R2Score は決定係数 1 - RSS/TSS を計算する。
// yTrue が定数の場合はエラー。
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	var yMean float64
	for i := 0; i < n; i++ {
		yMean += yTrue.AtVec(i)
	}
	yMean /= float64(n)

	var tss, rss float64
	for i := 0; i < n; i++ {
		y := yTrue.AtVec(i)
		tss += (y - yMean) * (y - yMean)
		rss += (y - yPred.AtVec(i)) * (y - yPred.AtVec(i))
	}
	if tss == 0 {
		return 0, errors.NewValueError("R2Score", "total sum of squares is zero")
	}
	return 1 - rss/tss, nil
}

// MeanTweedieDeviance は Tweedie 分布の平均逸脱度を計算する。
// power=0 は正規分布（MSE と一致）、power=1 はポアソン、power=2 はガンマ。
// sampleWeight が nil の場合は全て1とみなす。
func MeanTweedieDeviance(yTrue, yPred *mat.VecDense, sampleWeight []float64, power float64) (float64, error) {
	n, err := checkPair("MeanTweedieDeviance", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if sampleWeight != nil && len(sampleWeight) != n {
		return 0, errors.NewDimensionError("MeanTweedieDeviance", n, len(sampleWeight), 0)
	}
	if power > 0 && power < 1 {
		return 0, errors.NewValidationError("power", "must be 0 or >= 1", power)
	}

	var sum, wsum float64
	for i := 0; i < n; i++ {
		y, mu := yTrue.AtVec(i), yPred.AtVec(i)
		if power > 0 && mu <= 0 {
			return 0, errors.NewValueError("MeanTweedieDeviance", "yPred must be strictly positive for power > 0")
		}
		if power >= 2 && y <= 0 {
			return 0, errors.NewValueError("MeanTweedieDeviance", "yTrue must be strictly positive for power >= 2")
		}
		if power >= 1 && y < 0 {
			return 0, errors.NewValueError("MeanTweedieDeviance", "yTrue must be non-negative for power >= 1")
		}

		w := 1.0
		if sampleWeight != nil {
			w = sampleWeight[i]
		}
		sum += w * unitTweedieDeviance(y, mu, power)
		wsum += w
	}
	if wsum <= 0 {
		return 0, errors.NewValueError("MeanTweedieDeviance", "sample weights sum to zero")
	}

	return sum / wsum, nil
}

// MeanPoissonDeviance はポアソン分布の平均逸脱度を計算する
func MeanPoissonDeviance(yTrue, yPred *mat.VecDense) (float64, error) {
	return MeanTweedieDeviance(yTrue, yPred, nil, 1)
}

// MeanGammaDeviance はガンマ分布の平均逸脱度を計算する
func MeanGammaDeviance(yTrue, yPred *mat.VecDense) (float64, error) {
	return MeanTweedieDeviance(yTrue, yPred, nil, 2)
}

func unitTweedieDeviance(y, mu, p float64) float64 {
	switch p {
	case 0:
		d := y - mu
		return d * d
	case 1:
		// 0·log(0) = 0
		var ylog float64
		if y > 0 {
			ylog = y * math.Log(y/mu)
		}
		return 2 * (ylog - y + mu)
	case 2:
		return 2 * (math.Log(mu/y) + y/mu - 1)
	default:
		return 2 * (math.Pow(math.Max(y, 0), 2-p)/((1-p)*(2-p)) -
			y*math.Pow(mu, 1-p)/(1-p) +
			math.Pow(mu, 2-p)/(2-p))
	}
}
