// main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/firebase/genkit/go/genkit"

	p2n "github.com/PIP-Team-3/pip-final-project-sub000"
	"github.com/PIP-Team-3/pip-final-project-sub000/internal/assembler"
	"github.com/PIP-Team-3/pip-final-project-sub000/internal/cache"
	"github.com/PIP-Team-3/pip-final-project-sub000/internal/eventbus"
	"github.com/PIP-Team-3/pip-final-project-sub000/internal/generators"
	"github.com/PIP-Team-3/pip-final-project-sub000/internal/logging"
	"github.com/PIP-Team-3/pip-final-project-sub000/internal/planner"
	"github.com/PIP-Team-3/pip-final-project-sub000/internal/registry"
	"github.com/PIP-Team-3/pip-final-project-sub000/internal/store"
)

func main() {
	logging.Init(logging.ParseLevel(os.Getenv("P2N_LOG_LEVEL")), os.Getenv("P2N_LOG_FORMAT"))
	logger := logging.New("server")

	if err := run(logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx := context.Background()

	// Registries, with an optional YAML overlay for private datasets/models.
	var extraDatasets []registry.DatasetEntry
	var extraModels []registry.ModelEntry
	if path := os.Getenv("P2N_REGISTRY_OVERLAY"); path != "" {
		overlay, err := registry.LoadOverlayFile(path)
		if err != nil {
			return err
		}
		if extraDatasets, err = overlay.DatasetEntries(); err != nil {
			return err
		}
		if extraModels, err = overlay.ModelEntries(); err != nil {
			return err
		}
		logger.Info("registry overlay loaded", "path", path,
			"datasets", len(extraDatasets), "models", len(extraModels))
	}
	datasets, err := registry.NewDatasetRegistry(extraDatasets...)
	if err != nil {
		return err
	}
	models, err := registry.NewModelRegistry(extraModels...)
	if err != nil {
		return err
	}

	factory, err := generators.NewFactory(datasets, models)
	if err != nil {
		return err
	}

	bus := eventbus.NewChannelEventBus()
	defer bus.Close()
	_, err = bus.SubscribeAll(func(ctx context.Context, event eventbus.Event) error {
		logging.New("events").Info(string(event.Type()), "source", event.Source())
		return nil
	})
	if err != nil {
		return err
	}

	resultCache := cache.NewInMemoryCache(30 * time.Minute)
	defer resultCache.Close()

	materializer, err := p2n.New(
		p2n.WithFactory(factory),
		p2n.WithAssembler(assembler.New()),
		p2n.WithCache(resultCache),
		p2n.WithEventBus(bus),
	)
	if err != nil {
		return err
	}

	artifacts, err := store.NewFileStore(envOr("P2N_ARTIFACT_DIR", "./data/artifacts"))
	if err != nil {
		return err
	}

	// The planner needs a model behind genkit; without an API key the server
	// still serves materialization from caller-supplied plans.
	var plans p2n.Planner
	if os.Getenv("GEMINI_API_KEY") != "" {
		g, err := genkit.Init(ctx)
		if err != nil {
			return fmt.Errorf("genkit initialization failed: %w", err)
		}
		plans, err = planner.New(g, datasets, planner.WithEventBus(bus))
		if err != nil {
			return err
		}
		logger.Info("planner enabled")
	} else {
		logger.Warn("GEMINI_API_KEY not set; POST /v1/plans disabled")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /v1/materialize", handleMaterialize(materializer, artifacts))
	mux.HandleFunc("POST /v1/plans", handlePlan(plans))

	server := &http.Server{
		Addr:              envOr("P2N_LISTEN_ADDR", ":8080"),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

// handleMaterialize turns a posted plan into a notebook plus requirements,
// persists both under the plan digest, and returns them inline.
func handleMaterialize(m *p2n.Materializer, artifacts p2n.ArtifactStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := readBody(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		plan, err := p2n.ParsePlan(body)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		result, err := m.Materialize(r.Context(), plan)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}

		digest := plan.Digest()
		_ = artifacts.Put(r.Context(), "runs/"+digest+"/notebook.ipynb", result.NotebookBytes)
		_ = artifacts.Put(r.Context(), "runs/"+digest+"/requirements.txt", []byte(result.RequirementsText))

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"plan_digest":       digest,
			"environment_hash":  result.EnvironmentHash,
			"dataset_backend":   result.DatasetBackend,
			"model_backend":     result.ModelBackend,
			"notebook":          json.RawMessage(result.NotebookBytes),
			"requirements_text": result.RequirementsText,
		})
	}
}

// handlePlan drafts a plan from extracted claims via the two-stage planner.
func handlePlan(plans p2n.Planner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if plans == nil {
			writeError(w, http.StatusServiceUnavailable,
				errors.New("planner is not configured"))
			return
		}
		body, err := readBody(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		var input p2n.PlannerInput
		if err := json.Unmarshal(body, &input); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		plan, err := plans.GeneratePlan(r.Context(), input)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, plan)
	}
}

func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, errors.New("empty request body")
	}
	return body, nil
}

func statusFor(err error) int {
	var perr *p2n.Error
	if errors.As(err, &perr) {
		switch perr.Code {
		case p2n.ErrCodePlanField, p2n.ErrCodeSanitize, p2n.ErrCodeMaterialization:
			return http.StatusUnprocessableEntity
		}
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
