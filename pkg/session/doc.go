/*
Package session implements read-modify-write access to per-chat Session records.

The Manager deliberately takes no locks: every incoming event is handled on
its own and concurrent updates of one chat race, with the later write
winning. Storage read failures are treated as an absent session and write
failures are logged, so a flaky store degrades a turn instead of failing it.
*/
package session
