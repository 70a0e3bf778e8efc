// Package events defines the typed session event contract.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - user_input.*
//   - response.*
//   - assistant_speech.*
//
// Semantics used across the package:
//
//   - Interim: mutable point-in-time transcript that can still change.
//   - Final: terminal immutable text for the current utterance.
//   - Elapsed: a scheduled quiet period ran to completion.
//
// user_input events
//
//   - UserSpeechStarted (user_input.speech_started): speech activity began.
//   - UserSpeechEnded (user_input.speech_ended): speech activity ended.
//   - UserTranscriptInterim (user_input.transcript_interim): mutable interim
//     transcript snapshot for the in-progress utterance.
//   - UserTranscriptFinal (user_input.transcript_final): terminal transcript
//     for the utterance.
//   - UserTextInput (user_input.text): text typed by a participant; always
//     treated as final.
//
// response events
//
//   - ResponseDebounceElapsed (response.debounce_elapsed): the debounce quiet
//     interval passed without a newer interim transcript. Carries the timer
//     generation it was armed with so stale fires can be discarded.
//
// assistant_speech events
//
//   - AssistantSpeechRequested (assistant_speech.requested): a speech request
//     was issued to the speech output.
//   - AssistantSpeechInterrupted (assistant_speech.interrupted): in-flight
//     speech generation was cut off.
//   - AssistantSpeechEnded (assistant_speech.ended): speech generation for a
//     request completed.
package events
