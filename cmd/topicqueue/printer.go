package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jrzesz33/topicqueue/internal/models"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func validateFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}
}

func printOutputs(w io.Writer, outputs models.StackOutputs, format string) error {
	values := outputs.Map()
	switch format {
	case formatJSON:
		return writeJSON(w, values)
	case formatYAML:
		return writeYAML(w, values)
	}
	for _, key := range models.OutputKeys {
		fmt.Fprintf(w, "%-17s %s\n", key, values[key])
	}
	return nil
}

type eventView struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	LogStream string    `json:"logStream" yaml:"logStream"`
	Message   string    `json:"message" yaml:"message"`
}

func printEvents(w io.Writer, events []models.LogEvent, marker, format string) error {
	views := make([]eventView, 0, len(events))
	for _, e := range events {
		views = append(views, eventView{Timestamp: e.Timestamp, LogStream: e.LogStream, Message: e.Message})
	}

	switch format {
	case formatJSON:
		return writeJSON(w, views)
	case formatYAML:
		return writeYAML(w, views)
	}
	for _, v := range views {
		fmt.Fprintf(w, "%s  %s\n", v.Timestamp.Format(time.RFC3339Nano), strings.TrimRight(v.Message, "\n"))
	}
	fmt.Fprintf(w, "-- %s\n", summary(events, marker))
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	_, err = w.Write(data)
	return err
}
