package signal

// MinSamples é o número mínimo de amostras necessário para estimar um
// ciclo cardíaco dentro de uma janela de agregação
const MinSamples = 10

// FindPeaks retorna os índices dos máximos locais estritos da sequência.
// Não há restrição de proeminência nem de distância mínima: qualquer
// amostra maior que as duas vizinhas conta como pico. As extremidades
// da sequência nunca são picos.
func FindPeaks(samples []float64) []int {
	var peaks []int
	for i := 1; i < len(samples)-1; i++ {
		if samples[i] > samples[i-1] && samples[i] > samples[i+1] {
			peaks = append(peaks, i)
		}
	}
	return peaks
}

// FindTroughs retorna os índices dos mínimos locais estritos da
// sequência (picos da sequência negada)
func FindTroughs(samples []float64) []int {
	var troughs []int
	for i := 1; i < len(samples)-1; i++ {
		if samples[i] < samples[i-1] && samples[i] < samples[i+1] {
			troughs = append(troughs, i)
		}
	}
	return troughs
}

// ComputeBVA calcula a amplitude de volume sanguíneo (BVA) de uma janela
// de amostras PPG: |valor do último pico - valor do último vale|.
// Usa deliberadamente o pico e o vale mais recentes (maior índice), e não
// o maior pico / menor vale: é uma heurística de "amplitude do último
// ciclo cardíaco", não da forma de onda completa.
// Retorna ok=false quando há menos de MinSamples amostras ou quando não
// existe nenhum par pico/vale.
func ComputeBVA(samples []float64) (float64, bool) {
	if len(samples) < MinSamples {
		return 0, false
	}

	peaks := FindPeaks(samples)
	troughs := FindTroughs(samples)

	if len(peaks) == 0 || len(troughs) == 0 {
		return 0, false
	}

	lastPeak := samples[peaks[len(peaks)-1]]
	lastTrough := samples[troughs[len(troughs)-1]]

	amplitude := lastPeak - lastTrough
	if amplitude < 0 {
		amplitude = -amplitude
	}
	return amplitude, true
}
