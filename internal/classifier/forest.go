package classifier

import "fmt"

// Node é um nó de uma árvore de decisão exportada. Feature == -1 marca
// uma folha; Value contém então o índice da classe prevista.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     int     `json:"value"`
}

// Tree é uma árvore de decisão serializada como vetor de nós; o nó 0 é a raiz
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Forest é o random forest treinado, exportado do pipeline de treino
// como JSON (uma lista de árvores com nós achatados)
type Forest struct {
	Trees []Tree `json:"trees"`
}

// predict percorre uma árvore até uma folha e retorna o índice da classe
func (t *Tree) predict(features []float64) (int, error) {
	if len(t.Nodes) == 0 {
		return 0, fmt.Errorf("árvore vazia")
	}

	idx := 0
	// Limite de passos protege contra artefatos malformados com ciclos
	for steps := 0; steps <= len(t.Nodes); steps++ {
		node := t.Nodes[idx]
		if node.Feature < 0 {
			return node.Value, nil
		}
		if node.Feature >= len(features) {
			return 0, fmt.Errorf("índice de feature inválido: %d", node.Feature)
		}

		if features[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
		if idx < 0 || idx >= len(t.Nodes) {
			return 0, fmt.Errorf("índice de nó inválido: %d", idx)
		}
	}

	return 0, fmt.Errorf("árvore sem folha alcançável")
}

// Predict retorna o índice da classe por voto majoritário entre as árvores
func (f *Forest) Predict(features []float64) (int, error) {
	if len(f.Trees) == 0 {
		return 0, fmt.Errorf("floresta vazia")
	}

	votes := make(map[int]int)
	for i := range f.Trees {
		class, err := f.Trees[i].predict(features)
		if err != nil {
			return 0, fmt.Errorf("erro na árvore %d: %w", i, err)
		}
		votes[class]++
	}

	best, bestCount := 0, -1
	for class, count := range votes {
		// Desempate pela menor classe, como no scikit-learn
		if count > bestCount || (count == bestCount && class < best) {
			best, bestCount = class, count
		}
	}
	return best, nil
}
