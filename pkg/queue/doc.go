// Package queue runs background tasks with at-least-once delivery.
//
// An Enqueuer serialises a payload into a Task; a Worker claims due tasks,
// decodes them for the Handler registered under the payload's type name and
// records the outcome. Failed attempts are retried with a Backoff until the
// task's MaxAttempts is spent, then moved to the dead letter queue. Handlers
// wrap an error with ErrSkipRetry to dead-letter a task immediately.
//
// Storage is pluggable through EnqueuerRepository and WorkerRepository.
// PGStorage is the durable implementation; MemoryStorage serves tests and
// local development.
//
//	storage := queue.NewPGStorage(pool)
//	enq, _ := queue.NewEnqueuer(storage)
//	_, _ = enq.Enqueue(ctx, notify.WelcomeEmail{Email: "a@b.c"})
//
//	w, _ := queue.NewWorker(storage, cfg.WorkerOptions()...)
//	w.RegisterHandlers(queue.NewTaskHandler(sendWelcome))
//	g.Go(w.Run(ctx))
package queue
