package duet

// Version is the current release of duet.
const Version = "0.1.0"
