package routes

import (
	"net/http"
	"strings"

	httpSwagger "github.com/swaggo/http-swagger"

	"TRIPCRAFT_BACK-END/internal/config"
	"TRIPCRAFT_BACK-END/internal/handlers"
	"TRIPCRAFT_BACK-END/internal/middleware"
)

// Handlers bundles every handler the router needs
type Handlers struct {
	Auth        *handlers.AuthHandler
	GoogleAuth  *handlers.GoogleAuthHandler
	Health      *handlers.HealthHandler
	Trips       *handlers.TripsHandler
	Invitations *handlers.InvitationsHandler
	TripState   *handlers.TripStateHandler
	Bookings    *handlers.BookingsHandler
	Tours       *handlers.ToursHandler
}

// SetupRoutes configures all application routes
func SetupRoutes(h Handlers, jwtCfg *config.JWTConfig) {
	// Health check routes
	http.HandleFunc("/healthz", h.Health.HealthCheck)
	http.HandleFunc("/livez", h.Health.LivenessCheck)
	http.HandleFunc("/readyz", h.Health.ReadinessCheck)

	// Authentication routes
	http.HandleFunc("/api/auth/register", h.Auth.Register)
	http.HandleFunc("/api/auth/login", h.Auth.Login)
	http.HandleFunc("/api/auth/profile", middleware.AuthMiddleware(h.Auth.GetProfile, jwtCfg))
	http.HandleFunc("/api/auth/google/login", h.GoogleAuth.GoogleLogin)
	http.HandleFunc("/api/auth/google/callback", h.GoogleAuth.GoogleCallback)

	// Trip routes. The default mux has no path parameters, so /api/trips/
	// fans out on the path segments after the prefix.
	http.HandleFunc("/api/trips", middleware.AuthMiddleware(h.Trips.Trips, jwtCfg))
	http.HandleFunc("/api/trips/", middleware.AuthMiddleware(tripSubrouter(h), jwtCfg))

	// Invitation redemption is trip-agnostic: the token carries the trip.
	http.HandleFunc("/api/invitations/accept", middleware.AuthMiddleware(h.Invitations.AcceptInvitation, jwtCfg))

	// Booking routes
	http.HandleFunc("/api/bookings/", middleware.AuthMiddleware(h.Bookings.Bookings, jwtCfg))

	// Public tour availability
	http.HandleFunc("/api/tours/", toursSubrouter(h))

	// Swagger UI
	http.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	// Root route
	http.HandleFunc("/", rootHandler)
}

// tripSubrouter dispatches /api/trips/{trip_id} and its sub-resources
// (invite, state, destinations, accommodations, flights).
func tripSubrouter(h Handlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		segs := pathSegments(r.URL.Path, "/api/trips/")
		switch {
		case len(segs) == 1:
			h.Trips.TripByID(w, r, segs[0])
		case len(segs) == 2 && segs[1] == "invite":
			h.Invitations.CreateInvitation(w, r, segs[0])
		case len(segs) == 2 && segs[1] == "state":
			h.TripState.TripState(w, r, segs[0])
		case len(segs) == 2 && segs[1] == "destinations":
			h.Trips.AddDestination(w, r, segs[0])
		case len(segs) == 3 && segs[1] == "destinations":
			h.Trips.RemoveDestination(w, r, segs[0], segs[2])
		case len(segs) == 2 && segs[1] == "accommodations":
			h.Trips.AddAccommodation(w, r, segs[0])
		case len(segs) == 3 && segs[1] == "accommodations":
			h.Trips.RemoveAccommodation(w, r, segs[0], segs[2])
		case len(segs) == 2 && segs[1] == "flights":
			h.Trips.AddFlight(w, r, segs[0])
		case len(segs) == 3 && segs[1] == "flights":
			h.Trips.RemoveFlight(w, r, segs[0], segs[2])
		default:
			http.NotFound(w, r)
		}
	}
}

// toursSubrouter dispatches /api/tours/{tour_id}/availability
func toursSubrouter(h Handlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		segs := pathSegments(r.URL.Path, "/api/tours/")
		if len(segs) == 2 && segs[1] == "availability" {
			h.Tours.Availability(w, r, segs[0])
			return
		}
		http.NotFound(w, r)
	}
}

func pathSegments(path, prefix string) []string {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("TripCraft backend is running."))
}
