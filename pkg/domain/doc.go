/*
Package domain contains the core types shared by every layer of the bridge.

It is kept free of I/O and of any knowledge about the host editor. The types
here describe what callers see: the Result envelope every action returns and
the error taxonomy used to classify failures.

# Key Entities

  - Result: The canonical success/error envelope.
  - ErrorCode: The failure classification carried by a Result.
  - ActionError: A structured error raised at the source with an explicit code.
*/
package domain
