package utils

// environment variables
const ADDR = "ADDR"
const DBUSER = "DBUSER"
const DBPASS = "DBPASS"
const DBNAME = "DBNAME"
const JWT_SECRET_KEY = "JWT_SECRET_KEY"
const ADMIN_EMAIL = "ADMIN_EMAIL"
const MAIL_SERVER = "MAIL_SERVER"
const MAIL_PORT = "MAIL_PORT"
const MAIL_USERNAME = "MAIL_USERNAME"
const MAIL_PASSWORD = "MAIL_PASSWORD"
const MAIL_SENDER = "MAIL_SENDER"
const ACCESS_TOKEN_MINUTES = "ACCESS_TOKEN_MINUTES"
const REFRESH_TOKEN_HOURS = "REFRESH_TOKEN_HOURS"
const OTP_CODE_MINUTES = "OTP_CODE_MINUTES"

// token types
const ACCESS_TYPE = "access"
const REFRESH_TYPE = "refresh"

// defaults
const ACCESS_TOKEN_DURATION = 15 // minutes
const REFRESH_TOKEN_DURATION = 168 // hours
const OTP_CODE_DURATION = 5 // minutes
const MAX_NUM_OTP_ATTEMPTS = 3

// error messages
const GENERIC_LOGIN_ERROR = "Invalid username or password"
const GENERIC_OTP_ERROR = "Invalid OTP"
const GENERIC_RATE_LIMIT_ERROR = "Too many requests. Please try again later!"
const MISSING_REQUEST_DATA = "Missing or malformed request data"
