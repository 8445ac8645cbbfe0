package aggregator

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cogload_go/internal/alert"
	"cogload_go/internal/buffer"
	"cogload_go/internal/classifier"
	"cogload_go/internal/config"
	"cogload_go/internal/storage"
)

// stubScorer devolve sempre o mesmo rótulo
type stubScorer struct {
	label string
	err   error
}

func (s *stubScorer) Available() bool { return true }

func (s *stubScorer) Score(eda, temp, bva float64) (string, error) {
	return s.label, s.err
}

// captureTransport registra os rótulos enviados
type captureTransport struct {
	labels []string
	err    error
}

func (t *captureTransport) Send(label string) error {
	t.labels = append(t.labels, label)
	return t.err
}

func newTestService(t *testing.T, window int, scorer classifier.Scorer, transport AlertTransport) (*Service, *buffer.Store, config.OutputConfig) {
	t.Helper()

	dir := t.TempDir()
	outputCfg := config.OutputConfig{
		DataFile:       filepath.Join(dir, "data.csv"),
		FeatureFile:    filepath.Join(dir, "features.csv"),
		PredictionFile: filepath.Join(dir, "predictions.csv"),
	}

	channels := []string{"PPG:IR", "EDA", "T1", "HR"}
	sink := storage.NewCSVSink(outputCfg, channels)
	require.NoError(t, sink.Initialize())

	store := buffer.NewStore(buffer.DefaultCapacity)
	adapter := classifier.NewAdapter(scorer)
	debouncer := alert.NewDebouncer(window)

	cfg := config.AggregatorConfig{
		CardioChannel: "PPG:IR",
		Channels:      channels,
	}

	service := NewService(cfg, store, adapter, debouncer, sink, transport, nil, nil)
	service.SetAsyncRedis(false)

	return service, store, outputCfg
}

// feedFullWindow alimenta o store com uma janela que produz o vetor de
// features completo: senoide no canal cardiovascular e valores estáveis
// em EDA e T1
func feedFullWindow(store *buffer.Store) {
	for i := 0; i < 50; i++ {
		store.Record("PPG:IR", math.Sin(float64(i)*0.5))
	}
	for i := 0; i < 5; i++ {
		store.Record("EDA", 0.42)
		store.Record("T1", 33.5)
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	return records
}

func TestRunCycle_EndToEnd(t *testing.T) {
	transport := &captureTransport{}
	service, store, outputCfg := newTestService(t, 10, &stubScorer{label: "LOW"}, transport)

	feedFullWindow(store)
	service.RunCycle()

	// Linha agregada com BVA definido
	dataRows := readCSV(t, outputCfg.DataFile)
	require.Len(t, dataRows, 2)
	header := dataRows[0]
	row := dataRows[1]
	assert.Equal(t, "BVA", header[len(header)-1])
	assert.NotEmpty(t, row[len(row)-1], "BVA deve estar definido para a senoide")

	// Canal sem amostras fica com célula vazia
	hrIndex := indexOf(t, header, "HR")
	assert.Empty(t, row[hrIndex])

	// Vetor de features e classificação persistidos
	featureRows := readCSV(t, outputCfg.FeatureFile)
	require.Len(t, featureRows, 2)

	predictionRows := readCSV(t, outputCfg.PredictionFile)
	require.Len(t, predictionRows, 2)
	assert.Equal(t, "LOW", predictionRows[1][4])

	last := service.GetLastPrediction()
	require.NotNil(t, last)
	assert.Equal(t, "LOW", last.Label)

	// Janela de 10 ainda não preenchida: nenhum alerta
	assert.Empty(t, transport.labels)
}

func TestRunCycle_SemAmostras(t *testing.T) {
	service, _, outputCfg := newTestService(t, 10, &stubScorer{label: "LOW"}, &captureTransport{})

	service.RunCycle()

	// A linha agregada é gravada mesmo sem nenhuma amostra
	dataRows := readCSV(t, outputCfg.DataFile)
	require.Len(t, dataRows, 2)
	for _, cell := range dataRows[1][1:] {
		assert.Empty(t, cell)
	}

	// Sem vetor de features completo não há classificação
	featureRows := readCSV(t, outputCfg.FeatureFile)
	assert.Len(t, featureRows, 1)
	assert.Nil(t, service.GetLastPrediction())
}

func TestRunCycle_AlertaDisparado(t *testing.T) {
	transport := &captureTransport{}
	service, store, _ := newTestService(t, 3, &stubScorer{label: "HIGH"}, transport)

	for i := 0; i < 3; i++ {
		feedFullWindow(store)
		service.RunCycle()
	}

	require.Len(t, transport.labels, 1)
	assert.Equal(t, "HIGH", transport.labels[0])

	alerts := service.GetRecentAlerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, "HIGH", alerts[0].Label)
	assert.Equal(t, 3, alerts[0].WindowSize)

	// Após o disparo a janela recomeça do zero
	feedFullWindow(store)
	service.RunCycle()
	assert.Len(t, transport.labels, 1)
}

func TestRunCycle_SentinelaAlimentaDebounce(t *testing.T) {
	// Modelo indisponível: o rótulo sentinela também conta para o consenso
	transport := &captureTransport{}
	service, store, _ := newTestService(t, 2, classifier.Unavailable(), transport)

	for i := 0; i < 2; i++ {
		feedFullWindow(store)
		service.RunCycle()
	}

	require.Len(t, transport.labels, 1)
	assert.Equal(t, classifier.LabelModelNotLoaded, transport.labels[0])
}

func TestRunCycle_FalhaNoEnvioDeAlerta(t *testing.T) {
	transport := &captureTransport{err: assert.AnError}
	service, store, _ := newTestService(t, 2, &stubScorer{label: "HIGH"}, transport)

	for i := 0; i < 2; i++ {
		feedFullWindow(store)
		service.RunCycle()
	}

	// Falha de entrega não é retentada: o histórico recomeça como se o
	// alerta tivesse sido entregue
	require.Len(t, transport.labels, 1)
	feedFullWindow(store)
	service.RunCycle()
	assert.Len(t, transport.labels, 1)

	// O evento ainda é registrado localmente
	assert.Len(t, service.GetRecentAlerts(), 1)
}

func TestRunCycle_TransicaoDeStatus(t *testing.T) {
	service, store, outputCfg := newTestService(t, 10, &stubScorer{label: "LOW"}, &captureTransport{})

	// Quebrar o diretório de saída para forçar falha de persistência
	dir := filepath.Dir(outputCfg.DataFile)
	require.NoError(t, os.RemoveAll(dir))

	service.RunCycle()

	status := service.GetStatus()
	assert.Equal(t, 1, status.ErrorCount)
	assert.NotEmpty(t, status.LastError)

	// Restaurar o diretório: o próximo ciclo bem-sucedido limpa o contador
	require.NoError(t, os.MkdirAll(dir, 0755))
	feedFullWindow(store)
	service.RunCycle()

	status = service.GetStatus()
	assert.Zero(t, status.ErrorCount)
	assert.Empty(t, status.LastError)
}

func TestGetStatus(t *testing.T) {
	service, _, _ := newTestService(t, 10, &stubScorer{label: "LOW"}, &captureTransport{})

	status := service.GetStatus()
	assert.Equal(t, "stopped", status.Status)
	assert.True(t, status.ModelLoaded)
	assert.Zero(t, status.ErrorCount)
}

func indexOf(t *testing.T, header []string, name string) int {
	t.Helper()
	for i, h := range header {
		if h == name {
			return i
		}
	}
	t.Fatalf("coluna %q não encontrada no cabeçalho %v", name, header)
	return -1
}
