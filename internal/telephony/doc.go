// Package telephony places outbound calls with recording enabled and fetches
// the resulting audio. The Twilio implementation uses the official REST SDK;
// any Dialer can be wrapped in a circuit breaker.
package telephony
