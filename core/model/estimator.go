package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を行う
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// LinearModel は線形モデルのインターフェース
type LinearModel interface {
	// Coef は学習された重み（係数）を返す
	Coef() []float64
	// Intercept は学習された切片を返す
	Intercept() float64
}

// Regressor は学習・予測の両方を備えた回帰モデル
type Regressor interface {
	Fitter
	Predictor
	LinearModel
}

// WeightedFitter はサンプル重み付きで学習できるモデル
type WeightedFitter interface {
	// FitWeighted は sampleWeight（nil なら全て1）で学習する
	FitWeighted(X, y mat.Matrix, sampleWeight []float64) error
}

// Exporter は学習済みの重みを書き出せるモデル
type Exporter interface {
	ExportWeights() (*ModelWeights, error)
}
