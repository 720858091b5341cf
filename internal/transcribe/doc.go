// Package transcribe turns call recordings into text using hosted
// speech-to-text services. OpenAI Whisper is the default provider; Google
// Gemini can be used instead or as a fallback.
package transcribe
