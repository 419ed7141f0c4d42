package linear_model

import (
	"encoding/json"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/glmbench/core/model"
)

// TestGLMWeightReproducibility は重みの完全な再現性をテスト
func TestGLMWeightReproducibility(t *testing.T) {
	// テストデータを作成
	X := mat.NewDense(100, 3, nil)
	y := mat.NewDense(100, 1, nil)

	// y ~ Poisson 風のカウント（決定的に生成）
	for i := 0; i < 100; i++ {
		X.Set(i, 0, math.Sin(float64(i)/10.0))
		X.Set(i, 1, math.Cos(float64(i)/10.0))
		X.Set(i, 2, float64(i)/50.0)
		y.Set(i, 0, math.Round(math.Exp(0.5*X.At(i, 0)+0.3*X.At(i, 1)-0.2*X.At(i, 2)+1)+float64(i%3)))
	}

	// モデル1を学習
	model1, err := NewGeneralizedLinearRegressor(WithFamily(Poisson), WithAlpha(0.01), WithL1Ratio(0.5))
	if err != nil {
		t.Fatalf("Failed to create model1: %v", err)
	}
	if err := model1.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit model1: %v", err)
	}

	// 重みをエクスポートしてJSONを往復させる
	weights, err := model1.ExportWeights()
	if err != nil {
		t.Fatalf("Failed to export weights: %v", err)
	}
	jsonData, err := json.Marshal(weights)
	if err != nil {
		t.Fatalf("Failed to serialize weights: %v", err)
	}
	loadedWeights := &model.ModelWeights{}
	if err := loadedWeights.FromJSON(jsonData); err != nil {
		t.Fatalf("Failed to deserialize weights: %v", err)
	}

	// モデル2に重みをインポート（既定は Normal 族なので family も復元される必要がある）
	model2, err := NewGeneralizedLinearRegressor()
	if err != nil {
		t.Fatalf("Failed to create model2: %v", err)
	}
	if err := model2.ImportWeights(loadedWeights); err != nil {
		t.Fatalf("Failed to import weights: %v", err)
	}

	// 両モデルの係数が完全に一致することを確認
	coef1 := model1.Coef()
	coef2 := model2.Coef()
	if len(coef1) != len(coef2) {
		t.Fatalf("Coefficient length mismatch: %d vs %d", len(coef1), len(coef2))
	}
	for i := range coef1 {
		if coef1[i] != coef2[i] {
			t.Errorf("Coefficient mismatch at index %d: %.17g vs %.17g", i, coef1[i], coef2[i])
		}
	}
	if model1.Intercept() != model2.Intercept() {
		t.Errorf("Intercept mismatch: %.17g vs %.17g", model1.Intercept(), model2.Intercept())
	}

	// 予測結果が完全に一致することを確認
	pred1, err := model1.Predict(X)
	if err != nil {
		t.Fatalf("Failed to predict with model1: %v", err)
	}
	pred2, err := model2.Predict(X)
	if err != nil {
		t.Fatalf("Failed to predict with model2: %v", err)
	}
	for i := 0; i < 100; i++ {
		if pred1.At(i, 0) != pred2.At(i, 0) {
			t.Fatalf("Prediction mismatch at row %d: %.17g vs %.17g", i, pred1.At(i, 0), pred2.At(i, 0))
		}
	}

	if model2.NIter() != model1.NIter() || model2.Converged() != model1.Converged() {
		t.Errorf("fit diagnostics were not restored")
	}
}

// TestGLMExportChecksum はチェックサムが係数から決定的に計算されることを確認
func TestGLMExportChecksum(t *testing.T) {
	X := mat.NewDense(6, 1, []float64{1, 2, 3, 4, 5, 6})
	y := mat.NewDense(6, 1, []float64{2.1, 3.9, 6.2, 7.8, 10.1, 12})

	fit := func() *model.ModelWeights {
		m, err := NewGeneralizedLinearRegressor(WithAlpha(0.01))
		if err != nil {
			t.Fatal(err)
		}
		if err := m.Fit(X, y); err != nil {
			t.Fatal(err)
		}
		w, err := m.ExportWeights()
		if err != nil {
			t.Fatal(err)
		}
		return w
	}

	w1, w2 := fit(), fit()
	if w1.Metadata["checksum"] != w2.Metadata["checksum"] {
		t.Errorf("checksum differs between identical fits")
	}
	if w1.ModelType != "GeneralizedLinearRegressor" || w1.Version != model.WeightsVersion {
		t.Errorf("unexpected header: %s %s", w1.ModelType, w1.Version)
	}
	if _, err := NewGeneralizedLinearRegressor(); err != nil {
		t.Fatal(err)
	}
	m, _ := NewGeneralizedLinearRegressor()
	if _, err := m.ExportWeights(); err == nil {
		t.Error("expected an error exporting an unfitted model")
	}
}
