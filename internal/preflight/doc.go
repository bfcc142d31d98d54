// Package preflight provides readiness checks for the directories, binaries,
// and services telefetch depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll once at startup and logs the results. Failures
//     are reported but not fatal; the bot keeps running so a transient
//     Telegram outage does not stop local processing.
//   - The CLI "telefetch status" command renders CheckSystemDeps alongside
//     the daemon status so a missing ffmpeg is visible before the first
//     oversized download trips over it.
package preflight
