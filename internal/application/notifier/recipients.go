package notifier

import "github.com/memphis-pe/oc-api/internal/domain"

// DistributionLists holds the role-based addresses notified per workflow state.
type DistributionLists struct {
	Operaciones string
	Gerencia    string
	Finanzas    string
}

// Recipients computes the deduplicated set of addresses to notify for an
// order snapshot. Rules are independent and additive: assignee and buyer are
// always included when present, and the state routes to one distribution
// list. Empty fields are skipped; the result carries no ordering guarantee.
func Recipients(o *domain.Order, lists DistributionLists) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(addr string) {
		if addr == "" {
			return
		}
		if _, dup := seen[addr]; dup {
			return
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}

	add(o.AsignadoA)
	add(o.Comprador)

	switch o.Estado {
	case domain.EstadoPendienteOperaciones:
		add(lists.Operaciones)
	case domain.EstadoAprobadoOperaciones:
		add(lists.Gerencia)
	case domain.EstadoAprobadoGerencia:
		add(lists.Finanzas)
	}
	return out
}
