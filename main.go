package main

import (
	"context"
	"net"
	"net/http"

	"github.com/AadityaKP/MoodBoard/audio"
	"github.com/AadityaKP/MoodBoard/classifier"
	"github.com/AadityaKP/MoodBoard/config"
	"github.com/AadityaKP/MoodBoard/features"
	"github.com/AadityaKP/MoodBoard/handler/analysis"
	"github.com/AadityaKP/MoodBoard/handler/health"
	moodHandler "github.com/AadityaKP/MoodBoard/handler/mood"
	"github.com/AadityaKP/MoodBoard/handler/reflection"
	spotHandler "github.com/AadityaKP/MoodBoard/handler/spotify"
	"github.com/AadityaKP/MoodBoard/handler/trends"
	"github.com/AadityaKP/MoodBoard/ledger"
	"github.com/AadityaKP/MoodBoard/logger"
	"github.com/AadityaKP/MoodBoard/pipeline"
	"github.com/AadityaKP/MoodBoard/poller"
	"github.com/AadityaKP/MoodBoard/spotify"
	"github.com/gorilla/mux"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// Route is an http.Handler that knows the mux pattern
// under which it will be registered.
type Route interface {
	http.Handler

	// Pattern reports the path at which this is registered.
	Pattern() string
}

func main() {
	fx.New(
		fx.Provide(
			fx.Annotate(NewHTTPServer, fx.ParamTags(``, ``, ``, `group:"routes"`)),
			config.Options,
			logger.Options,
			ledger.Options,
			spotify.ProvideTokenStore,
			spotify.Options,
			audio.Options,
			features.Options,
			classifier.Options,
			pipeline.Options,
			poller.Options,

			AsRoute(health.NewHealthHandler),
			AsRoute(spotHandler.NewLoginHandler),
			AsRoute(spotHandler.NewCallbackHandler),
			AsRoute(spotHandler.NewControlHandler),
			AsRoute(spotHandler.NewDevicesHandler),
			AsRoute(spotHandler.NewPlayerHandler),
			AsRoute(analysis.NewAnalysisHandler),
			AsRoute(moodHandler.NewUserMoodHandler),
			AsRoute(moodHandler.NewDistributionHandler),
			AsRoute(moodHandler.NewTopSongsHandler),
			AsRoute(moodHandler.NewSuggestionsHandler),
			AsRoute(moodHandler.NewHistoryHandler),
			AsRoute(trends.NewWeeklyHandler),
			AsRoute(trends.NewWeeklyTrendsHandler),
			AsRoute(trends.NewDayHandler),
			AsRoute(trends.NewMonthlyHandler),
			AsRoute(trends.NewNotesHandler),
			AsRoute(reflection.NewReflectionHandler),
		),
		fx.WithLogger(func(log *zap.SugaredLogger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Desugar()}
		}),
		fx.Invoke(func(*http.Server, *poller.Poller) {}),
	).Run()
}

func NewHTTPServer(
	lc fx.Lifecycle,
	log *zap.SugaredLogger,
	cfg config.Config,
	routes []Route,
) *http.Server {
	router := mux.NewRouter()
	router.Use(corsMiddleware)

	for _, route := range routes {
		h := http.Handler(route)
		// the websocket upgrade must not carry a JSON content type
		if route.Pattern() != "/ws/player" {
			h = jsonMiddleware(route)
		}
		router.Handle(route.Pattern(), h)
	}

	srv := &http.Server{Addr: cfg.Addr(), Handler: router}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			log.Infow("Starting HTTP server", "addr", srv.Addr, "routes", len(routes))
			go srv.Serve(ln)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})

	return srv
}

// AsRoute annotates the given constructor to state that
// it provides a route to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
