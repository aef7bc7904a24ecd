// Package stimulus provides time-dependent external drives for the models.
//
// Stimuli implement [dynamo.Stimulus] and are evaluated once per step:
//
//   - [None]: zero input of a given dimension
//   - [Constant]: fixed input vector
//   - [MealSchedule]: periodic diet pulses with optional insulin dosing
//   - [SquareWave]: on/off current injection for membrane models
//   - [Manual]: input set interactively, e.g. from the live view
//   - [Feedback]: PID control of one channel from one state component
//   - [StateFeedback]: fixed gain law u = -K(x - target)
//   - [Sum]: several stimuli acting together, e.g. meals plus a pump
//
// Stimuli implementing [dynamo.Configurable] can be tuned from config files.
// Those implementing [Fitter] are checked against the model before a run.
package stimulus
