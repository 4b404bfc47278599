package types

const (
	ActionRabbitMQConnected       = "rabbitmq_connected"
	ActionRabbitConnectionClosed  = "rabbitmq_connection_closed"
	ActionRabbitConnectionClosing = "rabbitmq_connection_closing"
	ActionRabbitReconnected       = "rabbitmq_reconnection_success"

	ActionSessionRefresh      = "session_refresh"
	ActionForceLogout         = "force_logout"
	ActionTelemetryCycle      = "telemetry_cycle"
	ActionRealtimeConnect     = "realtime_connect"
	ActionRealtimeReconnect   = "realtime_reconnect"
	ActionRealtimeRegister    = "realtime_register"
	ActionGoOnline            = "go_online"
	ActionGoOffline           = "go_offline"
	ActionSyncOnlineStatus    = "sync_online_status"
	ActionSuspension          = "suspension"
	ActionSetStatus           = "set_availability_status"
	ActionRideOffer           = "ride_offer"
	ActionTripMilestone       = "trip_milestone"
	ActionBrokerPublish       = "broker_publish"
	ActionExternalServiceFail = "external_service_failed"
)
