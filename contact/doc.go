// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package contact accepts contact form submissions.

# Spam Checks

Submit applies the checks in this order:

 1. The hidden "website" field is filled: the submission is dropped but
    reported as accepted.
 2. The form was submitted less than MinFillTime after started_at: dropped
    the same way.
 3. Field validation fails: *validation.Error.
 4. The message holds more than MaxLinks links: ErrTooManyLinks.

Per-IP rate limiting happens in the router, before Submit is reached.

# Delivery

Accepted messages are stored in the "messages" collection with a salted IP
hash and then emailed to CONTACT_TO with the sender as reply-to. If the email
fails the message stays stored and Submit returns ErrEmailFailed.
*/
package contact
