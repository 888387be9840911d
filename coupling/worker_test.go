package coupling

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepexcav/femadapt/field"
)

func TestAddExchangeTaskRequiresRealtime(t *testing.T) {
	c := newTestInterface(t, false)
	ok := c.AddExchangeTask(Task{Type: TaskParameterExchange})
	assert.False(t, ok)
}

func TestAddExchangeTaskRequiresType(t *testing.T) {
	c := newTestInterface(t, true)
	assert.False(t, c.AddExchangeTask(Task{}))
}

func TestWorkerLifecycleStatus(t *testing.T) {
	c := newTestInterface(t, true)
	assert.Equal(t, "running", c.Status().RealtimeStatus())
	c.Close()
	assert.Equal(t, "stopped", c.Status().RealtimeStatus())
}

func TestWorkerProcessesTasksInOrder(t *testing.T) {
	c := mappedRealtimeInterface(t)

	var mu sync.Mutex
	var order []string
	c.SetCallbacks(Callbacks{
		OnPINNData: func(map[string]field.Field) {
			mu.Lock()
			order = append(order, "fem_to_pinn")
			mu.Unlock()
		},
		OnFEMData: func(map[string]field.Field) {
			mu.Lock()
			order = append(order, "pinn_to_fem")
			mu.Unlock()
		},
		OnParameterUpdate: func(map[string]any) {
			mu.Lock()
			order = append(order, "parameter_exchange")
			mu.Unlock()
		},
	})

	femField := map[string]field.Field{"u": field.Scalar(make([]float64, 8))}
	require.True(t, c.AddExchangeTask(Task{Type: TaskFEMToPINN, Data: femField}))
	require.True(t, c.AddExchangeTask(Task{Type: TaskPINNToFEM, Data: femField}))
	require.True(t, c.AddExchangeTask(Task{
		Type:      TaskParameterExchange,
		FEMParams: map[string]any{"a": 1},
	}))

	require.True(t, c.Drain(2*time.Second))
	c.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"fem_to_pinn", "pinn_to_fem", "parameter_exchange"}, order)
}

func TestWorkerContainsPanics(t *testing.T) {
	c := newTestInterface(t, true)

	done := make(chan struct{})
	c.SetCallbacks(Callbacks{
		OnParameterUpdate: func(m map[string]any) {
			if _, ok := m["boom"]; ok {
				panic("callback failure")
			}
			close(done)
		},
	})

	require.True(t, c.AddExchangeTask(Task{
		Type:       TaskParameterExchange,
		PINNParams: map[string]any{"boom": true},
	}))
	require.True(t, c.AddExchangeTask(Task{
		Type:       TaskParameterExchange,
		PINNParams: map[string]any{"ok": true},
	}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive the panicking task")
	}
}

func TestWorkerSavesTaskArtifacts(t *testing.T) {
	c := mappedRealtimeInterface(t)

	done := make(chan struct{})
	c.SetCallbacks(Callbacks{
		OnPINNData: func(map[string]field.Field) { close(done) },
	})

	require.True(t, c.AddExchangeTask(Task{
		Type: TaskFEMToPINN,
		Data: map[string]field.Field{"u": field.Scalar(make([]float64, 8))},
		Save: true,
	}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task was not processed")
	}
	c.Close()

	history := c.Status().History()
	require.NotEmpty(t, history)
	assert.Equal(t, "fem_to_pinn", history[0].Direction)
}

// mappedRealtimeInterface builds a realtime interface with computed
// mapping operators on the unit cube.
func mappedRealtimeInterface(t *testing.T) *Interface {
	t.Helper()
	c := newTestInterface(t, true)
	c.Status().SetFEMMeshInfo(&FEMMeshInfo{Source: "test", NPoints: len(unitCubeCorners)})
	c.SetFEMPoints(unitCubeCorners)
	require.True(t, c.SetupPINNDomain(map[string][2]float64{
		"x": {0, 1}, "y": {0, 1}, "z": {0, 1},
	}, []int{2}))
	require.True(t, c.ComputeMappingMatrices())
	return c
}
