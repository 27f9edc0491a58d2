// Command company-registry serves canned registry documents for local
// development. Point REGISTRY_BASE_URL at it.
package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

var documents = map[string]map[string]any{
	"11222333000181": {
		"cnpj":                  "11222333000181",
		"razao_social":          "EMPRESA EXEMPLO LTDA",
		"nome_fantasia":         "EXEMPLO",
		"situacao_cadastral":    "ATIVA",
		"cnae_fiscal":           6201501,
		"municipio":             "SAO PAULO",
		"uf":                    "SP",
		"capital_social":        "100000,00",
		"data_inicio_atividade": "2010-05-12",
	},
	"33000167000101": {
		"cnpj":               "33000167000101",
		"razao_social":       "PETROLEO BRASILEIRO S A PETROBRAS",
		"nome_fantasia":      "PETROBRAS",
		"situacao_cadastral": "ATIVA",
		"cnae_fiscal":        600001,
		"municipio":          "RIO DE JANEIRO",
		"uf":                 "RJ",
	},
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	addr := os.Getenv("MOCK_REGISTRY_ADDR")
	if addr == "" {
		addr = ":8081"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{taxId}", func(w http.ResponseWriter, r *http.Request) {
		taxID := strings.TrimSpace(r.PathValue("taxId"))
		doc, ok := documents[taxID]
		logger.Info("registry lookup", "tax_id", taxID, "found", ok)
		if !ok {
			http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(doc)
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("starting mock company registry", "addr", addr)
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
