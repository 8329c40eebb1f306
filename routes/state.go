package routes

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/victorjacobs/go-izzi/izzi"
	"github.com/victorjacobs/go-izzi/ui"
)

// Source is what the state route reads from the controller.
type Source interface {
	Role() izzi.Role
	Snapshot() map[izzi.SensorID]izzi.Reading
	Statistics() izzi.Statistics
}

type sensorState struct {
	ID    izzi.SensorID `json:"id"`
	Value *int          `json:"value"`
}

type stateResponse struct {
	Role          string          `json:"role"`
	Sensors       []sensorState   `json:"sensors"`
	Statistics    izzi.Statistics `json:"statistics"`
	LastRefreshed time.Time       `json:"last_refreshed"`
}

// State returns the latest published reading of every sensor. Unknown values
// are null.
func State(source Source) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		snapshot := source.Snapshot()

		resp := stateResponse{
			Role:          source.Role().String(),
			Sensors:       make([]sensorState, 0, len(snapshot)),
			Statistics:    source.Statistics(),
			LastRefreshed: time.Now(),
		}
		for id, reading := range snapshot {
			state := sensorState{ID: id}
			if reading.Valid {
				value := reading.Value
				state.Value = &value
			}
			resp.Sensors = append(resp.Sensors, state)
		}
		sort.Slice(resp.Sensors, func(i, j int) bool {
			return resp.Sensors[i].ID < resp.Sensors[j].ID
		})

		marshaled, err := json.Marshal(resp)
		if err != nil {
			ui.Error("error marshaling: %v", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(marshaled)
	}
}
