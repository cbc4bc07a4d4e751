// Package graph writes broker records into Neo4j as Broker, City and
// Speciality nodes.
package graph

import (
	"context"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"broker-scout/internal/logger"
	"broker-scout/internal/models"
)

// Statement is one parameterized Cypher query.
type Statement struct {
	Query  string
	Params map[string]any
}

// Writer applies record messages to the graph, one transaction per record.
type Writer struct {
	driver DriverSessioner
	log    logger.Logger
}

// NewWriter builds a graph writer.
func NewWriter(driver DriverSessioner, log logger.Logger) *Writer {
	return &Writer{driver: driver, log: log}
}

// WriteRecord merges the broker and its edges. Records without a URL are ignored.
func (w *Writer) WriteRecord(ctx context.Context, msg models.RecordMessage) error {
	stmts := BrokerStatements(msg)
	if len(stmts) == 0 {
		return nil
	}

	session := w.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer func() {
		if err := session.Close(ctx); err != nil {
			w.log.Warn("neo4j session close error", logger.Err(err))
		}
	}()

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, st := range stmts {
			if _, err := tx.Run(ctx, st.Query, st.Params); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

// BrokerStatements builds the merge statements for one record.
func BrokerStatements(msg models.RecordMessage) []Statement {
	rec := msg.Record
	if rec.URL == "" {
		return nil
	}

	stmts := []Statement{buildBrokerQuery(msg)}
	if city := strings.TrimSpace(rec.City); city != "" {
		stmts = append(stmts, Statement{
			Query: "MATCH (b:Broker {url: $url}) " +
				"MERGE (c:City {name: $name}) " +
				"MERGE (b)-[:LOCATED_IN]->(c)",
			Params: map[string]any{"url": rec.URL, "name": city},
		})
	}
	for _, name := range SplitSpeciality(rec.Speciality) {
		stmts = append(stmts, Statement{
			Query: "MATCH (b:Broker {url: $url}) " +
				"MERGE (s:Speciality {name: $name}) " +
				"MERGE (b)-[:SPECIALIZES_IN]->(s)",
			Params: map[string]any{"url": rec.URL, "name": name},
		})
	}
	return stmts
}

func buildBrokerQuery(msg models.RecordMessage) Statement {
	rec := msg.Record
	query := "MERGE (b:Broker {url: $url}) " +
		"SET b.run_id = $run_id, b.place = $place, b.cbi = $cbi, " +
		"b.name = coalesce($name, b.name), " +
		"b.image_link = coalesce($image_link, b.image_link), " +
		"b.member_date = coalesce($member_date, b.member_date), " +
		"b.email = coalesce($email, b.email), " +
		"b.phone = coalesce($phone, b.phone), " +
		"b.address = coalesce($address, b.address), " +
		"b.website = coalesce($website, b.website)"
	params := map[string]any{
		"url":         rec.URL,
		"run_id":      msg.RunID,
		"place":       msg.Place,
		"cbi":         rec.IsCBI == models.CBIYes,
		"name":        optional(rec.Name),
		"image_link":  optional(rec.ImageLink),
		"member_date": optional(rec.MemberDate),
		"email":       optional(rec.Email),
		"phone":       optional(rec.Phone),
		"address":     optional(rec.Address),
		"website":     optional(rec.Website),
	}
	return Statement{Query: query, Params: params}
}

// SplitSpeciality undoes the ", " join of speciality list items.
func SplitSpeciality(speciality string) []string {
	var out []string
	for _, part := range strings.Split(speciality, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// optional maps empty strings to nil so coalesce keeps stored values.
func optional(v string) any {
	if v == "" {
		return nil
	}
	return v
}
