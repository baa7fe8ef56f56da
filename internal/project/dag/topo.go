package dag

import (
	"slices"
)

type Topo struct {
	Order   []ModuleID   // линейный порядок: зависимости раньше импортёров
	Batches [][]ModuleID // волны модулей, которые можно анализировать параллельно
	Cyclic  bool
	Blocked []ModuleID // модули на цикле или импортирующие такие модули
}

// ToposortKahn layers the present modules so that every module appears in a
// later batch than all of the modules it imports.
func ToposortKahn(g Graph) *Topo {
	nodeCount := len(g.Edges)
	pending := make([]int, nodeCount) // сколько присутствующих зависимостей ещё не готово
	users := make([][]ModuleID, nodeCount)

	topo := &Topo{
		Order:   make([]ModuleID, 0, nodeCount),
		Batches: make([][]ModuleID, 0),
	}

	active := 0
	for from := range nodeCount {
		if !g.Present[from] {
			continue
		}
		active++
		for _, to := range g.Edges[from] {
			if !g.Present[int(to)] {
				continue
			}
			pending[from]++
			users[int(to)] = append(users[int(to)], toModuleID(from))
		}
	}

	current := make([]ModuleID, 0, nodeCount)
	for i := range nodeCount {
		if g.Present[i] && pending[i] == 0 {
			current = append(current, toModuleID(i))
		}
	}

	visited := 0
	for len(current) > 0 {
		slices.Sort(current)
		batch := make([]ModuleID, len(current))
		copy(batch, current)
		topo.Batches = append(topo.Batches, batch)

		next := make([]ModuleID, 0)
		for _, id := range batch {
			topo.Order = append(topo.Order, id)
			visited++
			for _, user := range users[int(id)] {
				pending[int(user)]--
				if pending[int(user)] == 0 {
					next = append(next, user)
				}
			}
		}
		current = next
	}

	if visited != active {
		topo.Cyclic = true
		for i := range nodeCount {
			if g.Present[i] && pending[i] > 0 {
				topo.Blocked = append(topo.Blocked, toModuleID(i))
			}
		}
	}

	return topo
}
