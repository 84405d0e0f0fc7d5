package utils

// LoggerInitializationFailedMessageFormat reports that the application logger could not be built.
const LoggerInitializationFailedMessageFormat = "failed to initialize logger: %w"

// ApplicationExecutionFailedMessage prefixes fatal command errors.
const ApplicationExecutionFailedMessage = "fsviz failed"
