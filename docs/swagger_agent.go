package docs

// @title           Driver Presence Agent API
// @version         1.0
// @description     Local control API of the driver presence agent. The app hands over the session, toggles availability, reports device fixes and ride milestones, and listens to offers on /ws/events.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the SERVER_TOKEN value.
