package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CommentsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discussions_comments_created_total",
		Help: "Comments created, by kind (top_level or reply).",
	}, []string{"kind"})

	CommentMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discussions_comment_mutations_total",
		Help: "Edit, delete and restore attempts by outcome.",
	}, []string{"op", "result"})

	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discussions_notifications_total",
		Help: "Reply notifications by delivery outcome.",
	}, []string{"result"})

	SweepPurged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "discussions_sweep_purged_total",
		Help: "Comments physically removed by the retention sweep.",
	})
)
