package middlewarectx

import "net/http"

// MaintenanceRenderer отрисовывает страницу режима обслуживания.
type MaintenanceRenderer interface {
	Maintenance(w http.ResponseWriter, r *http.Request)
}

// Maintenance при включенном режиме отвечает страницей обслуживания на любой запрос.
func Maintenance(enabled bool, view MaintenanceRenderer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(view.Maintenance)
	}
}
