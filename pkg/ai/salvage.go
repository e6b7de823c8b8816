package ai

import (
	"context"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/tidwall/gjson"
)

// SalvageJSON recovers a JSON object or array from raw model output.
//
// Model completions routinely wrap their payload in prose or markdown fences,
// so after trying the input verbatim it slices the widest bracketed regions,
// preferring whichever opening bracket appears first, and finally runs a
// repair pass over each candidate. Only object or array payloads count as a hit; a bare string or
// number salvaged out of prose is noise, not a result.
func SalvageJSON(raw string) (gjson.Result, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return gjson.Result{}, false
	}

	candidates := sliceCandidates(raw)
	for _, candidate := range candidates {
		if res, ok := parseStructured(candidate); ok {
			return res, true
		}
	}
	for _, candidate := range candidates {
		repaired, err := jsonrepair.JSONRepair(candidate)
		if err != nil {
			continue
		}
		if res, ok := parseStructured(repaired); ok {
			return res, true
		}
	}

	return gjson.Result{}, false
}

func parseStructured(s string) (gjson.Result, bool) {
	if !gjson.Valid(s) {
		return gjson.Result{}, false
	}
	res := gjson.Parse(s)
	if !res.IsObject() && !res.IsArray() {
		return gjson.Result{}, false
	}
	return res, true
}

func sliceCandidates(raw string) []string {
	var arraySlice, objectSlice string
	arrayStart := strings.Index(raw, "[")
	if end := strings.LastIndex(raw, "]"); arrayStart >= 0 && end > arrayStart {
		arraySlice = raw[arrayStart : end+1]
	}
	objectStart := strings.Index(raw, "{")
	if end := strings.LastIndex(raw, "}"); objectStart >= 0 && end > objectStart {
		objectSlice = raw[objectStart : end+1]
	}

	// The slice whose opening bracket comes first is the payload; the other
	// is usually nested inside it and only worth trying as a last resort.
	candidates := []string{raw}
	if arraySlice != "" && (objectSlice == "" || arrayStart <= objectStart) {
		candidates = append(candidates, arraySlice)
		if objectSlice != "" {
			candidates = append(candidates, objectSlice)
		}
		return candidates
	}
	if objectSlice != "" {
		candidates = append(candidates, objectSlice)
	}
	if arraySlice != "" {
		candidates = append(candidates, arraySlice)
	}
	return candidates
}

// ChatJSON runs a chat turn and salvages a JSON payload from the completion.
// Absence of a completion and absence of salvageable JSON look the same to
// the caller.
func ChatJSON(
	ctx context.Context,
	client ChatClient,
	prompt string,
	opts ...GenerateOption,
) (gjson.Result, bool) {
	raw, ok := client.Chat(ctx, prompt, opts...)
	if !ok {
		return gjson.Result{}, false
	}
	return SalvageJSON(raw)
}
