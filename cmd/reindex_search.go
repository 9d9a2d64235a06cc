package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/psds-microservice/complaint-service/internal/database"
	"github.com/psds-microservice/complaint-service/internal/events"
	"github.com/psds-microservice/complaint-service/internal/repository"
	"github.com/psds-microservice/complaint-service/internal/searchindex"
)

var reindexSearchCmd = &cobra.Command{
	Use:   "reindex-search",
	Short: "Reindex all complaints into search. Prefers Kafka; falls back to HTTP if SEARCH_SERVICE_URL set.",
	RunE:  runReindexSearch,
}

func init() {
	rootCmd.AddCommand(reindexSearchCmd)
}

func runReindexSearch(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	conn, err := database.Open(cfg.DSN())
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer database.Close(conn)

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
	defer cancel()

	complaints, err := repository.New(conn).Complaints.All(ctx)
	if err != nil {
		return fmt.Errorf("list complaints: %w", err)
	}
	log.Info("reindex-search: loaded complaints", "count", len(complaints))

	if producer := events.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopicComplaint, log); producer.Enabled() {
		log.Info("reindex-search: using Kafka")
		for i := range complaints {
			c := &complaints[i]
			producer.Publish(ctx, events.Event{
				Type:        events.ComplaintUpdated,
				ComplaintID: c.ID,
				CategoryID:  c.CategoryID,
				Status:      string(c.Status),
				Actor:       "reindex",
				OccurredAt:  time.Now().UTC(),
			})
			if (i+1)%50 == 0 || i == len(complaints)-1 {
				log.Info("reindex-search: progress", "sent", i+1, "total", len(complaints))
			}
		}
		if err := producer.Close(); err != nil {
			return fmt.Errorf("kafka close: %w", err)
		}
		return nil
	}

	if client := searchindex.NewClient(cfg.SearchServiceURL, log); client.Enabled() {
		log.Info("reindex-search: using HTTP", "url", cfg.SearchServiceURL)
		failed := 0
		for i := range complaints {
			if err := client.IndexComplaint(ctx, &complaints[i]); err != nil {
				failed++
				log.Warn("reindex-search: index failed", "complaint_id", complaints[i].ID, "error", err)
			}
			if (i+1)%50 == 0 || i == len(complaints)-1 {
				log.Info("reindex-search: progress", "indexed", i+1-failed, "total", len(complaints))
			}
		}
		if failed > 0 {
			return fmt.Errorf("reindex-search: %d of %d complaints failed", failed, len(complaints))
		}
		return nil
	}

	log.Warn("reindex-search: neither KAFKA_BROKERS nor SEARCH_SERVICE_URL set, nothing sent")
	return nil
}
