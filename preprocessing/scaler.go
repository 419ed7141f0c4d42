// Package preprocessing provides feature scaling applied before fitting.
package preprocessing

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/glmbench/core/model"
	"github.com/YuminosukeSato/glmbench/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// StandardScaler はscikit-learn互換の標準化スケーラー
// データを平均0、標準偏差1に変換する。サンプル重み付きの統計量にも対応する。
type StandardScaler struct {
	state *model.StateManager

	// Mean は各特徴量の（重み付き）平均値
	Mean []float64

	// Scale は各特徴量の（重み付き）標準偏差
	Scale []float64

	// WithMean は平均を引くかどうか (デフォルト: true)
	WithMean bool

	// WithStd は標準偏差で割るかどうか (デフォルト: true)
	WithStd bool
}

// NewStandardScaler は新しいStandardScalerを作成する
//
// 使用例:
//
//	scaler := preprocessing.NewStandardScaler(true, false) // 中心化のみ
//	err := scaler.FitWeighted(X, sampleWeight)
//	Xc, err := scaler.Transform(X)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		state:    model.NewStateManager(),
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// NewStandardScalerDefault はデフォルト設定でStandardScalerを作成する
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// IsFitted はスケーラーが学習済みかどうかを返す
func (s *StandardScaler) IsFitted() bool {
	return s.state.IsFitted()
}

// Fit は訓練データから統計情報（平均、標準偏差）を計算する
func (s *StandardScaler) Fit(X mat.Matrix) error {
	return s.FitWeighted(X, nil)
}

// FitWeighted はサンプル重み付きで平均と標準偏差を計算する。
// sampleWeight が nil の場合は全て1とみなす。
func (s *StandardScaler) FitWeighted(X mat.Matrix, sampleWeight []float64) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}
	if sampleWeight != nil && len(sampleWeight) != r {
		return errors.NewDimensionError("StandardScaler.Fit", r, len(sampleWeight), 0)
	}

	weight := func(i int) float64 {
		if sampleWeight == nil {
			return 1
		}
		return sampleWeight[i]
	}

	var wsum float64
	for i := 0; i < r; i++ {
		wsum += weight(i)
	}
	if wsum <= 0 {
		return errors.NewValueError("StandardScaler.Fit", "sample weights must sum to a positive value")
	}

	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)

	if s.WithMean {
		for j := 0; j < c; j++ {
			sum := 0.0
			for i := 0; i < r; i++ {
				sum += weight(i) * X.At(i, j)
			}
			s.Mean[j] = sum / wsum
		}
	}

	for j := 0; j < c; j++ {
		s.Scale[j] = 1.0
	}
	if s.WithStd {
		for j := 0; j < c; j++ {
			sumSquares := 0.0
			for i := 0; i < r; i++ {
				diff := X.At(i, j) - s.Mean[j]
				sumSquares += weight(i) * diff * diff
			}
			std := math.Sqrt(sumSquares / wsum)

			// 標準偏差が0に近い場合は1に設定（ゼロ除算を避ける）
			if std >= 1e-8 {
				s.Scale[j] = std
			}
		}
	}

	s.state.SetDimensions(c, r)
	s.state.SetFitted()
	return nil
}

// Transform は学習済みの統計情報を使ってデータを標準化する
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	return s.TransformDense(X)
}

// TransformDense は Transform と同じだが *mat.Dense を返す
func (s *StandardScaler) TransformDense(X mat.Matrix) (*mat.Dense, error) {
	if err := s.state.RequireFitted("StandardScaler", "Transform"); err != nil {
		return nil, err
	}

	r, c := X.Dims()
	if err := s.state.RequireFeatures("StandardScaler.Transform", c); err != nil {
		return nil, err
	}

	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Scale[j]
	}, X)

	return result, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform は標準化されたデータを元のスケールに戻す
func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.state.RequireFitted("StandardScaler", "InverseTransform"); err != nil {
		return nil, err
	}

	r, c := X.Dims()
	if err := s.state.RequireFeatures("StandardScaler.InverseTransform", c); err != nil {
		return nil, err
	}

	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return v*s.Scale[j] + s.Mean[j]
	}, X)

	return result, nil
}

// UnscaleCoef は標準化空間で学習した係数と切片を元のスケールに戻す。
// w_j = w'_j / scale_j,  b = b' - Σ mean_j·w_j
func (s *StandardScaler) UnscaleCoef(coef []float64, intercept float64) ([]float64, float64, error) {
	if err := s.state.RequireFitted("StandardScaler", "UnscaleCoef"); err != nil {
		return nil, 0, err
	}
	if err := s.state.RequireFeatures("StandardScaler.UnscaleCoef", len(coef)); err != nil {
		return nil, 0, err
	}

	out := make([]float64, len(coef))
	b := intercept
	for j, w := range coef {
		out[j] = w / s.Scale[j]
		b -= s.Mean[j] * out[j]
	}
	return out, b, nil
}

// GetParams はスケーラーのパラメータを取得する
func (s *StandardScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"with_mean": s.WithMean,
		"with_std":  s.WithStd,
	}
}

// String はスケーラーの文字列表現を返す
func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	nFeatures, _ := s.state.GetDimensions()
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.WithMean, s.WithStd, nFeatures)
}

var _ model.InverseTransformer = (*StandardScaler)(nil)
